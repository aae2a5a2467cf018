package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/redirect"
	"researchPortalAPI/internal/user"
)

type SignUpOutcome string

const (
	OutcomeSSORedirect SignUpOutcome = "sso_redirect"
	OutcomeUserExists  SignUpOutcome = "user_exists"
	OutcomeCreated     SignUpOutcome = "created"
)

type SignUpResult struct {
	Outcome     SignUpOutcome `json:"outcome"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
}

type SignUpService struct {
	vendor        *frontegg.Client
	redirects     *redirect.Validator
	tenantID      string
	defaultRoleID string
}

func NewSignUpService(vendor *frontegg.Client, redirects *redirect.Validator, tenantID, defaultRoleID string) *SignUpService {
	return &SignUpService{
		vendor:        vendor,
		redirects:     redirects,
		tenantID:      tenantID,
		defaultRoleID: defaultRoleID,
	}
}

// SignUp routes a new visitor: SSO accounts are sent to their identity
// provider, known emails are told to sign in, and everyone else gets an
// account and an invite email.
func (s *SignUpService) SignUp(ctx context.Context, req user.SignUpRequest) (*SignUpResult, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, &InputError{Message: "Please fill in all fields"}
	}

	// Fail fast: the prelogin probe below swallows its errors, so a missing
	// vendor token would otherwise read as "no SSO".
	if _, err := s.vendor.Tokens().Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to obtain vendor token: %w", err)
	}

	if addr := s.ssoAddress(ctx, email); addr != "" && s.redirects.IsSafeRedirect(addr) {
		log.WithField("email", email).Info("SignUp: redirecting to SSO provider")
		return &SignUpResult{Outcome: OutcomeSSORedirect, RedirectURL: addr}, nil
	}

	exists, err := s.vendor.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return &SignUpResult{Outcome: OutcomeUserExists}, nil
	}

	err = s.vendor.CreateUser(ctx, s.tenantID, frontegg.CreateUserRequest{
		Email:           email,
		Name:            name,
		RoleIDs:         []string{s.defaultRoleID},
		SkipInviteEmail: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.WithField("email", email).Info("SignUp: user created")
	return &SignUpResult{Outcome: OutcomeCreated}, nil
}

// ssoAddress returns the IdP address for email when one is configured and
// safe to follow. Prelogin failures fall through to the regular sign-up.
func (s *SignUpService) ssoAddress(ctx context.Context, email string) string {
	addr, err := s.vendor.SSOPrelogin(ctx, email)
	if err != nil {
		log.Printf("SignUp: SSO check failed, continuing with regular signup: %v", err)
		return ""
	}
	if addr == "" {
		return ""
	}
	if !s.redirects.IsSafeRedirect(addr) {
		log.WithField("address", addr).Warn("SignUp: ignoring unsafe SSO redirect")
		return ""
	}
	return addr
}
