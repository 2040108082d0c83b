package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/eledevo/authledger/internal/auth/store"
)

// HousekeepingService periodically marks stale ledger records as expired
// so operators can tell "timed out" from "revoked" in the audit trail.
// Records are never deleted; verification never depends on this worker
// because expiry is always judged from the token's own exp claim.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// AccessTTL decides the cutoff: records older than one access-token
	// lifetime cannot back a live token any more.
	AccessTTL time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. If interval is 0 or negative
// it defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, accessTTL time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		AccessTTL: accessTTL,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep has
// finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep flips the expired flag on records too old to back a live token.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-s.AccessTTL)

	n, err := s.Store.Tokens().MarkExpiredBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("housekeeping sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("marked stale token records expired", "count", n)
	}
}
