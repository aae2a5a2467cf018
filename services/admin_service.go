package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/metadata"
	"researchPortalAPI/internal/onboarding"
	"researchPortalAPI/internal/session"
	"researchPortalAPI/internal/types/subscription"
	"researchPortalAPI/internal/user"
)

const (
	UnknownPlan = "Unknown Plan"

	rosterConcurrency = 8
)

type AdminService struct {
	vendor   *frontegg.Client
	tenantID string
}

// NewAdminService returns an AdminService. tenantID is used when a request
// does not name the user's tenant.
func NewAdminService(vendor *frontegg.Client, tenantID string) *AdminService {
	return &AdminService{vendor: vendor, tenantID: tenantID}
}

// LoadRoster lists every user with their subscriptions, in the order the
// vendor returned the users. A user whose entitlements cannot be fetched is
// listed with no subscriptions.
func (s *AdminService) LoadRoster(ctx context.Context, sess *session.Session) ([]user.RosterEntry, error) {
	// Fail fast before the fan-out; later calls read the cached token.
	if _, err := s.vendor.Tokens().Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to obtain vendor token: %w", err)
	}

	users, err := s.vendor.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	names := s.planNames(ctx)

	entries := make([]user.RosterEntry, len(users))
	var g errgroup.Group
	g.SetLimit(rosterConcurrency)
	for i, u := range users {
		g.Go(func() error {
			ents, err := s.vendor.ListEntitlements(ctx, u.ID)
			if err != nil {
				log.Printf("Admin: failed to load entitlements for %s: %v", u.ID, err)
				ents = nil
			}
			entries[i] = user.RosterEntry{
				Profile:       profileFromVendor(&u, u.Metadata),
				Subscriptions: subscriptions(ents, names),
			}
			return nil
		})
	}
	_ = g.Wait()

	return entries, nil
}

func (s *AdminService) planNames(ctx context.Context) map[string]string {
	plans, err := s.vendor.ListPlans(ctx)
	if err != nil {
		log.Printf("Admin: failed to load plan catalog: %v", err)
		return map[string]string{}
	}
	names := make(map[string]string, len(plans))
	for _, p := range plans {
		names[p.ID] = p.Name
	}
	return names
}

func subscriptions(ents []frontegg.Entitlement, names map[string]string) []user.Subscription {
	out := make([]user.Subscription, 0, len(ents))
	for _, e := range ents {
		out = append(out, user.Subscription{
			ID:             e.ID,
			PlanID:         e.PlanID,
			PlanName:       planName(e, names),
			ExpirationDate: e.ExpirationDate,
		})
	}
	return out
}

func planName(e frontegg.Entitlement, names map[string]string) string {
	if e.PlanID == "" {
		return UnknownPlan
	}
	if n := names[e.PlanID]; n != "" {
		return n
	}
	if n := e.EmbeddedPlanName(); n != "" {
		return n
	}
	return UnknownPlan
}

func profileFromVendor(u *frontegg.User, md map[string]any) user.Profile {
	return user.Profile{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		ProfilePictureURL: u.ProfilePictureURL,
		TenantID:          u.TenantID,
		Metadata:          metadata.FromMap(md),
		Source:            onboarding.SourceVendor,
	}
}

func (s *AdminService) ListPlans(ctx context.Context) ([]frontegg.Plan, error) {
	plans, err := s.vendor.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if plans == nil {
		plans = []frontegg.Plan{}
	}
	return plans, nil
}

// UpdateUser edits another user's profile. The submitted fields are merged
// into the user's stored metadata so unrelated keys and the onboarding flag
// survive.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, req user.AdminUpdateUserRequest) (*user.Profile, error) {
	d := onboarding.Trim(req.Details)
	if err := onboarding.ValidatePhone(d.Phone); err != nil {
		return nil, err
	}
	tenantID := s.tenant(req.TenantID)

	var base metadata.Metadata
	current, err := s.vendor.GetUser(ctx, tenantID, userID)
	if err != nil {
		if frontegg.IsNotFound(err) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		log.Printf("Admin: failed to load %s before update, metadata will not be merged: %v", userID, err)
		base = metadata.FromMap(nil)
	} else {
		base = metadata.FromMap(current.Metadata)
	}

	md := metadata.Merge(base, d.Metadata())
	updated, err := s.vendor.UpdateUser(ctx, tenantID, userID, frontegg.UserUpdate{
		Name:        d.Name,
		PhoneNumber: d.Phone,
		Metadata:    md.Encode(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	p := user.Profile{ID: userID, Name: d.Name, PhoneNumber: d.Phone, TenantID: tenantID, Metadata: md, Source: onboarding.SourceVendor}
	if updated != nil {
		p = profileFromVendor(updated, updated.Metadata)
		p.Metadata = md
	}
	return &p, nil
}

// AssignSubscription grants planID to userID until the given date.
func (s *AdminService) AssignSubscription(ctx context.Context, userID string, req subscription.AssignRequest) error {
	if strings.TrimSpace(req.PlanID) == "" {
		return &InputError{Message: "Please select a plan"}
	}
	expires, err := subscription.ExpirationDateTime(strings.TrimSpace(req.ExpirationDate))
	if err != nil {
		return &InputError{Message: err.Error()}
	}
	err = s.vendor.CreateEntitlement(ctx, frontegg.NewEntitlement{
		PlanID:         strings.TrimSpace(req.PlanID),
		TenantID:       s.tenant(req.TenantID),
		UserID:         userID,
		ExpirationDate: expires,
	})
	if err != nil {
		return fmt.Errorf("failed to assign subscription: %w", err)
	}
	return nil
}

func (s *AdminService) ExtendSubscription(ctx context.Context, entitlementID string, req subscription.ExtendRequest) error {
	expires, err := subscription.ExpirationDateTime(strings.TrimSpace(req.ExpirationDate))
	if err != nil {
		return &InputError{Message: err.Error()}
	}
	if err := s.vendor.UpdateEntitlementExpiration(ctx, entitlementID, expires); err != nil {
		return fmt.Errorf("failed to extend subscription: %w", err)
	}
	return nil
}

func (s *AdminService) RemoveSubscription(ctx context.Context, entitlementID string) error {
	if err := s.vendor.DeleteEntitlement(ctx, entitlementID); err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}
	return nil
}

func (s *AdminService) tenant(requested string) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	return s.tenantID
}
