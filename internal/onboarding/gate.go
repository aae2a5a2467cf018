// Package onboarding decides whether a signed-in user must complete their
// profile before using the portal, and validates the onboarding form.
package onboarding

import (
	"context"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/metadata"
)

type State string

const (
	StateChecking State = "checking"
	StateBlocking State = "blocking"
	StateClear    State = "clear"
)

const (
	SourceClaims = "claims"
	SourceVendor = "vendor"
	SourceNone   = "none"
)

// Decision is the gate's verdict together with the metadata it was based on,
// which the onboarding form uses to prefill.
type Decision struct {
	State    State             `json:"state"`
	Source   string            `json:"source"`
	Metadata metadata.Metadata `json:"metadata"`
}

// FetchFunc loads the live profile metadata.
type FetchFunc func(ctx context.Context) (map[string]any, error)

// Evaluate runs the gate. A completed flag in the claims clears it without a
// network call. Otherwise the live profile decides; when that fails the
// claims decide, and with no claims the gate blocks.
func Evaluate(ctx context.Context, claims map[string]any, claimsOK bool, fetch FetchFunc) Decision {
	if claimsOK && completed(claims) {
		return Decision{State: StateClear, Source: SourceClaims, Metadata: metadata.FromMap(claims)}
	}

	fetched, err := fetch(ctx)
	if err == nil {
		return decide(metadata.Normalize(fetched), SourceVendor)
	}
	log.Printf("Onboarding: profile fetch failed, falling back to claims: %v", err)

	if claimsOK {
		return decide(claims, SourceClaims)
	}
	return Decision{State: StateBlocking, Source: SourceNone, Metadata: metadata.FromMap(nil)}
}

func decide(m map[string]any, source string) Decision {
	state := StateBlocking
	if completed(m) {
		state = StateClear
	}
	return Decision{State: state, Source: source, Metadata: metadata.FromMap(m)}
}

func completed(m map[string]any) bool {
	done, _ := m["onboardingComplete"].(bool)
	return done
}
