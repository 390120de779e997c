package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// UserService exposes directory-wide reads for the admin surface.
type UserService struct {
	users    port.UserRepository
	sessions port.SessionRepository
	now      func() time.Time
}

// NewUserService constructs a user service.
func NewUserService(users port.UserRepository, sessions port.SessionRepository) *UserService {
	return &UserService{users: users, sessions: sessions, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Statistics aggregates user counts by status and role plus the number of
// live sessions.
func (s *UserService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	stats := domain.Statistics{
		UsersByRole: map[string]int{},
	}

	for _, user := range users {
		stats.TotalUsers++
		if user.Verified {
			stats.VerifiedUsers++
		}
		switch user.Status {
		case domain.UserStatusActive:
			stats.ActiveUsers++
		case domain.UserStatusSuspended:
			stats.SuspendedUsers++
		case domain.UserStatusDeleted:
			stats.DeletedUsers++
		}
		stats.UsersByRole[string(user.Role)]++
	}

	sessions, err := s.sessions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	now := s.now().UTC()
	for i := range sessions {
		if !sessions[i].Expired(now) {
			stats.ActiveSessions++
		}
	}

	return &stats, nil
}
