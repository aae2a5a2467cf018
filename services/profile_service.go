package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/metadata"
	"researchPortalAPI/internal/onboarding"
	"researchPortalAPI/internal/session"
	"researchPortalAPI/internal/user"
)

// MaxPictureBytes is the largest profile picture accepted.
const MaxPictureBytes = 5 << 20

type ProfileService struct {
	vendor *frontegg.Client
}

func NewProfileService(vendor *frontegg.Client) *ProfileService {
	return &ProfileService{vendor: vendor}
}

// GetProfile builds the profile from the session claims, then lets the live
// vendor profile supersede metadata, phone and picture when it is reachable.
func (s *ProfileService) GetProfile(ctx context.Context, sess *session.Session) *user.Profile {
	c := sess.Claims
	p := &user.Profile{
		ID:                sess.UserID(),
		Name:              c.Name,
		Email:             c.Email,
		PhoneNumber:       c.PhoneNumber,
		ProfilePictureURL: c.Picture,
		TenantID:          c.TenantID,
		Source:            onboarding.SourceClaims,
	}
	claims, _ := sess.Metadata()

	me, err := s.vendor.GetMe(ctx, sess.Token)
	if err != nil {
		log.Printf("Profile: live fetch for %s failed, using claims: %v", p.ID, err)
		p.Metadata = metadata.FromMap(metadata.Reconcile(claims, nil, false))
		return p
	}

	p.Metadata = metadata.FromMap(metadata.Reconcile(claims, me.Metadata, true))
	p.Source = onboarding.SourceVendor
	if me.PhoneNumber != "" {
		p.PhoneNumber = me.PhoneNumber
	}
	if me.ProfilePictureURL != "" {
		p.ProfilePictureURL = me.ProfilePictureURL
	}
	if p.Name == "" {
		p.Name = me.Name
	}
	if p.Email == "" {
		p.Email = me.Email
	}
	return p
}

// UpdateProfile saves the editable profile fields of the session user.
func (s *ProfileService) UpdateProfile(ctx context.Context, sess *session.Session, req user.UpdateProfileRequest) (*user.Profile, error) {
	d := onboarding.Trim(req.Details)
	if err := onboarding.ValidatePhone(d.Phone); err != nil {
		return nil, err
	}

	md := metadata.Merge(currentMetadata(ctx, s.vendor, sess), d.Metadata())
	upd := frontegg.UserUpdate{
		Name:              d.Name,
		PhoneNumber:       d.Phone,
		ProfilePictureURL: strings.TrimSpace(req.ProfilePictureURL),
		Metadata:          md.Encode(),
	}
	if _, err := s.vendor.UpdateMe(ctx, sess.Token, upd); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	p := s.GetProfile(ctx, sess)
	if p.Source != onboarding.SourceVendor {
		p.Metadata = md
	}
	if d.Name != "" {
		p.Name = d.Name
	}
	if d.Phone != "" {
		p.PhoneNumber = d.Phone
	}
	return p, nil
}

// UploadPicture stores an image as the session user's profile picture and
// returns its URL.
func (s *ProfileService) UploadPicture(ctx context.Context, sess *session.Session, filename, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", &InputError{Message: "Please select an image file"}
	}
	if size > MaxPictureBytes {
		return "", &InputError{Message: "Image size must be less than 5MB"}
	}

	url, err := s.vendor.UploadProfileImage(ctx, sess.Token, filename, contentType, io.LimitReader(r, MaxPictureBytes+1))
	if err != nil {
		return "", err
	}
	log.Printf("Profile: %s uploaded a new picture", sess.UserID())
	return url, nil
}
