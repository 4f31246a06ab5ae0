package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/ironvault/ironvault/internal/auth"
)

// SweepManager periodically evicts stale entries from the login lockout
// tracker so abandoned emails do not accumulate in memory.
type SweepManager struct {
	tracker  *auth.LockoutTracker
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(tracker *auth.LockoutTracker, logger *slog.Logger, interval time.Duration) *SweepManager {
	return &SweepManager{
		tracker:  tracker,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep task
func (sm *SweepManager) Start(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := sm.tracker.Sweep(); removed > 0 {
				sm.logger.Info("lockout tracker sweep completed", slog.Int("entries_removed", removed))
			}
		case <-sm.stopCh:
			sm.logger.Info("sweep manager stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("sweep manager context cancelled")
			return
		}
	}
}

// Stop signals the sweep manager to stop
func (sm *SweepManager) Stop() {
	close(sm.stopCh)
}
