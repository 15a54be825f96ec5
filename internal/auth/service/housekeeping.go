package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/store"
)

// HousekeepingService periodically deletes expired refresh and reset token
// rows so the tables do not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. An interval of 0 or
// less defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.SweepExpired(context.Background())

	for {
		select {
		case <-ticker.C:
			s.SweepExpired(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// SweepExpired deletes expired token rows and logs per-table counts. The two
// deletions are independent; a failure in one does not stop the other.
func (s *HousekeepingService) SweepExpired(ctx context.Context) {
	now := time.Now().UTC()

	refresh, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	}

	reset, err := s.Store.ResetTokens().DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	}

	if refresh > 0 || reset > 0 {
		s.Logger.Info("housekeeping sweep finished",
			"refresh_tokens_deleted", refresh,
			"reset_tokens_deleted", reset,
		)
	}
}
