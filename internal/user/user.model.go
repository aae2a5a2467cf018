package user

import "researchPortalAPI/internal/metadata"

// Profile is a user as the portal screens see it, with metadata decoded.
type Profile struct {
	ID                string            `json:"id"`
	Name              string            `json:"name,omitempty"`
	Email             string            `json:"email,omitempty"`
	PhoneNumber       string            `json:"phoneNumber,omitempty"`
	ProfilePictureURL string            `json:"profilePictureUrl,omitempty"`
	TenantID          string            `json:"tenantId,omitempty"`
	Metadata          metadata.Metadata `json:"metadata"`
	// Source is "vendor" when the live profile fetch succeeded, "claims" otherwise.
	Source string `json:"source"`
}

// RosterEntry is a profile with its resolved subscriptions.
type RosterEntry struct {
	Profile
	Subscriptions []Subscription `json:"subscriptions"`
}

type Subscription struct {
	ID             string `json:"id,omitempty"`
	PlanID         string `json:"planId,omitempty"`
	PlanName       string `json:"planName"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}
