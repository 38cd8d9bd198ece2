package post

import (
	"context"
	"log"
	"time"
)

// DefaultPurgeInterval matches the roughly once-a-minute cadence of a
// document store's TTL monitor, which this loop replaces.
const DefaultPurgeInterval = time.Minute

// RunPurgeLoop deletes expired posts and orphaned comments until ctx is
// cancelled. Purge failures are logged and retried on the next tick.
func RunPurgeLoop(ctx context.Context, svc *Service, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := svc.PurgeExpired(ctx)
			if err != nil {
				log.Printf("purge expired posts: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("purged %d expired posts", purged)
			}
		}
	}
}
