package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/metadata"
	"researchPortalAPI/internal/session"
)

// InputError is a request the caller must fix before retrying.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// currentMetadata returns the live profile metadata of the session user,
// falling back to the claims when the vendor cannot be reached.
func currentMetadata(ctx context.Context, vendor *frontegg.Client, sess *session.Session) metadata.Metadata {
	claims, _ := sess.Metadata()
	me, err := vendor.GetMe(ctx, sess.Token)
	if err != nil {
		log.Printf("Profile: live fetch for %s failed, using claims: %v", sess.UserID(), err)
		return metadata.FromMap(metadata.Reconcile(claims, nil, false))
	}
	return metadata.FromMap(metadata.Reconcile(claims, me.Metadata, true))
}
