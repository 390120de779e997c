package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// attemptRetention bounds how long ledger entries are kept.
const attemptRetention = 30 * 24 * time.Hour

// MaintenanceService prunes expired sessions and stale login attempts.
// Reads already treat expired data as absent; pruning only bounds storage
// growth.
type MaintenanceService struct {
	sessions port.SessionRepository
	attempts port.AttemptRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewMaintenanceService constructs a maintenance service.
func NewMaintenanceService(sessions port.SessionRepository, attempts port.AttemptRepository, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		sessions: sessions,
		attempts: attempts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *MaintenanceService) WithClock(now func() time.Time) *MaintenanceService {
	s.now = now
	return s
}

// CleanupExpired drops expired session records and login attempts older than
// the retention window. Each collection is pruned independently; a failure in
// one does not block the other.
func (s *MaintenanceService) CleanupExpired(ctx context.Context) {
	now := s.now().UTC()

	sessionsDropped, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to prune expired sessions", zap.Error(err))
	}

	attemptsDropped, err := s.attempts.DeleteOlderThan(ctx, now.Add(-attemptRetention))
	if err != nil {
		s.logger.Error("failed to prune stale login attempts", zap.Error(err))
	}

	if sessionsDropped > 0 || attemptsDropped > 0 {
		s.logger.Info("maintenance cleanup completed",
			zap.Int("sessions_dropped", sessionsDropped),
			zap.Int("attempts_dropped", attemptsDropped),
		)
	}
}

// Run invokes CleanupExpired on the given interval until the context ends.
func (s *MaintenanceService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired(ctx)
		case <-ctx.Done():
			return
		}
	}
}
