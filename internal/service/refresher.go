package service

import (
	"context"
	"time"
)

// Start refreshes the snapshot every interval until ctx is cancelled.
func (s *SnapshotService) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("snapshot refresher stopping")
				return
			case <-ticker.C:
				snap, err := s.Refresh(ctx)
				if err != nil {
					s.log.Warnf("scheduled refresh failed: %v", err)
					continue
				}
				s.log.Debugf("snapshot refreshed: %d stocks, %d trades", len(snap.Stocks), len(snap.Trades))
			}
		}
	}()
}
