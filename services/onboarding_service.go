package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/metadata"
	"researchPortalAPI/internal/onboarding"
	"researchPortalAPI/internal/session"
	"researchPortalAPI/internal/user"
)

type OnboardingService struct {
	vendor *frontegg.Client
}

func NewOnboardingService(vendor *frontegg.Client) *OnboardingService {
	return &OnboardingService{vendor: vendor}
}

// Evaluate decides whether the session user still has to onboard.
func (s *OnboardingService) Evaluate(ctx context.Context, sess *session.Session) onboarding.Decision {
	claims, ok := sess.Metadata()
	return onboarding.Evaluate(ctx, claims, ok, func(ctx context.Context) (map[string]any, error) {
		me, err := s.vendor.GetMe(ctx, sess.Token)
		if err != nil {
			return nil, err
		}
		return me.Metadata, nil
	})
}

// Submit validates the onboarding form and marks the profile complete.
// Validation failures are returned as onboarding.ValidationErrors before any
// vendor call.
func (s *OnboardingService) Submit(ctx context.Context, sess *session.Session, req user.OnboardingRequest) (onboarding.Decision, error) {
	if err := onboarding.ValidateRequired(req.Details); err != nil {
		return onboarding.Decision{}, err
	}
	d := onboarding.Trim(req.Details)

	md := metadata.Merge(currentMetadata(ctx, s.vendor, sess), d.Metadata())
	md.OnboardingComplete = true

	upd := frontegg.UserUpdate{
		Name:              d.Name,
		PhoneNumber:       d.Phone,
		ProfilePictureURL: strings.TrimSpace(req.ProfilePictureURL),
		Metadata:          md.Encode(),
	}
	if _, err := s.vendor.UpdateMe(ctx, sess.Token, upd); err != nil {
		return onboarding.Decision{}, fmt.Errorf("failed to save onboarding details: %w", err)
	}

	log.Printf("Onboarding: %s completed onboarding", sess.UserID())
	return onboarding.Decision{State: onboarding.StateClear, Source: onboarding.SourceVendor, Metadata: md}, nil
}
