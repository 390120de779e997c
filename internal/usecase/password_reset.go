package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/mail"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository"
)

// ErrSamePassword indicates the new password matches the one being replaced.
var ErrSamePassword = errors.New("new password must differ from the current password")

// PasswordResetService handles the two-step forgot-password flow.
type PasswordResetService struct {
	users     port.UserRepository
	sessions  *SessionService
	hasher    *security.PasswordHasher
	validator *security.PasswordValidator
	mail      *mail.Service
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(
	users port.UserRepository,
	sessions *SessionService,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	mailService *mail.Service,
	events port.EventPublisher,
	logger *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		validator: validator,
		mail:      mailService,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset issues a reset code for eligible accounts. The caller always
// receives the same nil result whether or not the email matched an account;
// only a failed email delivery for a real account surfaces as an error, since
// the user cannot proceed without the code.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	normalized := domain.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	if !user.Verified || user.Status != domain.UserStatusActive {
		return nil
	}

	code, err := security.GenerateNumericCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	expiresAt := s.now().UTC().Add(codeTTL)
	user, err = s.users.Update(ctx, user.ID, func(u *domain.User) {
		u.ResetCode = &code
		u.ResetExpiresAt = &expiresAt
	})
	if err != nil {
		return fmt.Errorf("persist reset code: %w", err)
	}

	if err := s.mail.SendResetCodeEmail(ctx, user.Email, code, user.Profile.FirstName); err != nil {
		return fmt.Errorf("send reset code email: %w", err)
	}

	s.logger.Info("password reset requested",
		zap.String("email", logger.MaskEmail(normalized)),
	)

	return nil
}

// Reset redeems a reset code, replaces the password, and revokes every
// session the user holds.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	normalized := domain.NormalizeEmail(email)

	if violations := s.validator.Validate(newPassword); len(violations) > 0 {
		return &PasswordPolicyError{Violations: security.Messages(violations)}
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("look up user: %w", err)
	}

	if user.ResetCode == nil || user.ResetExpiresAt == nil {
		return ErrCodeMissing
	}

	now := s.now().UTC()
	if now.After(*user.ResetExpiresAt) {
		return ErrCodeExpired
	}

	if *user.ResetCode != strings.TrimSpace(code) {
		return ErrCodeMismatch
	}

	same, err := s.hasher.Verify(newPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare against current password: %w", err)
	}
	if same {
		return ErrSamePassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user, err = s.users.Update(ctx, user.ID, func(u *domain.User) {
		u.PasswordHash = hash
		u.ResetCode = nil
		u.ResetExpiresAt = nil
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	})
	if err != nil {
		return fmt.Errorf("persist new password: %w", err)
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, user.ID, "password_reset")
	if err != nil {
		s.logger.Warn("failed to revoke sessions after password reset", zap.Error(err))
	}

	if err := s.mail.SendPasswordChangedEmail(ctx, user.Email, user.Profile.FirstName); err != nil {
		s.logger.Error("failed to send password changed email",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:         uuid.NewString(),
			UserID:          user.ID,
			ChangedAt:       now,
			SessionsRevoked: revoked,
			Metadata:        map[string]any{"method": "reset_code"},
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("failed to publish password changed event", zap.Error(err))
		}
	}

	s.logger.Info("password reset completed",
		zap.String("email", logger.MaskEmail(normalized)),
		zap.Int("sessions_revoked", revoked),
	)

	return nil
}
