// Package workers runs the service's background routines.
package workers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Warmer refreshes a credential that is about to expire.
type Warmer interface {
	Warm(ctx context.Context, within time.Duration) error
}

// StartTokenRefresher keeps the vendor token warm: every interval it asks w
// to refresh any token expiring within two intervals. It stops when ctx is
// done.
func StartTokenRefresher(ctx context.Context, w Warmer, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		refreshToken(ctx, w, interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshToken(ctx, w, interval)
			}
		}
	}()
	return done
}

func refreshToken(ctx context.Context, w Warmer, interval time.Duration) {
	rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := w.Warm(rctx, 2*interval); err != nil {
		log.Printf("Token refresher: failed to refresh vendor token: %v", err)
	}
}
