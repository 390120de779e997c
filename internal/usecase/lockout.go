package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
)

// LockoutPolicy owns the login-attempt ledger and the per-account failure
// counters. After Threshold consecutive failures the account is locked for
// Duration; an elapsed lock is cleared lazily on the next check.
type LockoutPolicy struct {
	users     port.UserRepository
	attempts  port.AttemptRepository
	logger    *zap.Logger
	threshold int
	duration  time.Duration
	now       func() time.Time
}

// NewLockoutPolicy constructs the lockout policy.
func NewLockoutPolicy(users port.UserRepository, attempts port.AttemptRepository, logger *zap.Logger, threshold int, duration time.Duration) *LockoutPolicy {
	return &LockoutPolicy{
		users:     users,
		attempts:  attempts,
		logger:    logger,
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (p *LockoutPolicy) WithClock(now func() time.Time) *LockoutPolicy {
	p.now = now
	return p
}

// IsLocked reports whether the account is currently locked. An expired lock
// is removed and the failure counter reset before reporting false.
func (p *LockoutPolicy) IsLocked(ctx context.Context, user *domain.User) (bool, error) {
	if user.LockedUntil == nil {
		return false, nil
	}

	now := p.now().UTC()
	if user.Locked(now) {
		return true, nil
	}

	updated, err := p.users.Update(ctx, user.ID, func(u *domain.User) {
		u.LockedUntil = nil
		u.FailedLoginAttempts = 0
	})
	if err != nil {
		return false, fmt.Errorf("clear expired lockout: %w", err)
	}
	*user = *updated

	return false, nil
}

// RecordFailure appends a failed attempt to the ledger and bumps the user's
// failure counter, locking the account once the threshold is reached. A nil
// user records the ledger entry only.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, user *domain.User, email, ip, userAgent string) error {
	if err := p.appendAttempt(ctx, email, ip, userAgent, false); err != nil {
		return err
	}

	if user == nil {
		return nil
	}

	now := p.now().UTC()
	updated, err := p.users.Update(ctx, user.ID, func(u *domain.User) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= p.threshold {
			lockedUntil := now.Add(p.duration)
			u.LockedUntil = &lockedUntil
		}
	})
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	*user = *updated

	if user.LockedUntil != nil {
		p.logger.Warn("account locked after repeated failures",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Int("failed_attempts", user.FailedLoginAttempts),
			zap.Time("locked_until", *user.LockedUntil),
		)
	}

	return nil
}

// RecordSuccess appends a successful attempt to the ledger.
func (p *LockoutPolicy) RecordSuccess(ctx context.Context, email, ip, userAgent string) error {
	return p.appendAttempt(ctx, email, ip, userAgent, true)
}

func (p *LockoutPolicy) appendAttempt(ctx context.Context, email, ip, userAgent string, success bool) error {
	attempt := domain.LoginAttempt{
		Email:     domain.NormalizeEmail(email),
		IPAddress: ip,
		Success:   success,
		UserAgent: userAgent,
		Timestamp: p.now().UTC(),
	}

	if err := p.attempts.Append(ctx, attempt); err != nil {
		return fmt.Errorf("append login attempt: %w", err)
	}
	return nil
}
