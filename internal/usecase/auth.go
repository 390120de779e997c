package usecase

import (
	"context"
	"errors"
	"fmt"
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

var (
	// ErrInvalidCredentials indicates a missing account or wrong password.
	// The two are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked indicates the account is temporarily locked out.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountInactive indicates the account is suspended or deleted.
	ErrAccountInactive = errors.New("account is not active")
	// ErrNotVerified indicates the account has not completed email verification.
	ErrNotVerified = errors.New("email not verified")
)

// AuthService handles login and logout.
type AuthService struct {
	users    port.UserRepository
	sessions *SessionService
	lockout  *LockoutPolicy
	hasher   *security.PasswordHasher
	mail     *mail.Service
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an auth service.
func NewAuthService(
	users port.UserRepository,
	sessions *SessionService,
	lockout *LockoutPolicy,
	hasher *security.PasswordHasher,
	mailService *mail.Service,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		lockout:  lockout,
		hasher:   hasher,
		mail:     mailService,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// LoginInput carries the login form fields and request context.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// LoginResult pairs the authenticated user with the issued session.
type LoginResult struct {
	User    domain.User
	Session domain.Session
}

// Login authenticates a user and issues a session. Failed attempts feed the
// lockout policy; a locked account rejects attempts even with the correct
// password until the lock elapses.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := domain.NormalizeEmail(input.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if recErr := s.lockout.RecordFailure(ctx, nil, email, input.IPAddress, input.UserAgent); recErr != nil {
				s.logger.Warn("failed to record login attempt", zap.Error(recErr))
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	locked, err := s.lockout.IsLocked(ctx, user)
	if err != nil {
		return nil, err
	}
	if locked {
		if recErr := s.lockout.RecordFailure(ctx, nil, email, input.IPAddress, input.UserAgent); recErr != nil {
			s.logger.Warn("failed to record login attempt", zap.Error(recErr))
		}
		return nil, ErrAccountLocked
	}

	if user.Status != domain.UserStatusActive {
		if recErr := s.lockout.RecordFailure(ctx, user, email, input.IPAddress, input.UserAgent); recErr != nil {
			s.logger.Warn("failed to record login attempt", zap.Error(recErr))
		}
		return nil, ErrAccountInactive
	}

	if !user.Verified {
		if recErr := s.lockout.RecordFailure(ctx, user, email, input.IPAddress, input.UserAgent); recErr != nil {
			s.logger.Warn("failed to record login attempt", zap.Error(recErr))
		}
		return nil, ErrNotVerified
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		if recErr := s.lockout.RecordFailure(ctx, user, email, input.IPAddress, input.UserAgent); recErr != nil {
			s.logger.Warn("failed to record login failure", zap.Error(recErr))
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, email, input.IPAddress, input.UserAgent); err != nil {
		s.logger.Warn("failed to record login success", zap.Error(err))
	}

	now := s.now().UTC()
	user, err = s.users.Update(ctx, user.ID, func(u *domain.User) {
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		u.LastLogin = &now
		u.LastLoginIP = input.IPAddress
		u.LoginCount++
	})
	if err != nil {
		return nil, fmt.Errorf("update login bookkeeping: %w", err)
	}

	session, err := s.sessions.Create(ctx, *user, input.IPAddress, input.UserAgent, input.RememberMe)
	if err != nil {
		return nil, err
	}

	// First login skips the alert; the welcome email already covers it.
	if user.Settings.LoginAlerts && user.LoginCount > 1 {
		alert := mail.LoginAlert{IP: input.IPAddress, Device: input.UserAgent}
		if err := s.mail.SendLoginAlertEmail(ctx, user.Email, alert); err != nil {
			s.logger.Error("failed to send login alert email",
				zap.String("email", logger.MaskEmail(user.Email)),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		event := domain.LoginSucceededEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			Email:      user.Email,
			IPAddress:  input.IPAddress,
			LoginCount: user.LoginCount,
			LoggedInAt: now,
		}
		if err := s.events.PublishLoginSucceeded(ctx, event); err != nil {
			s.logger.Warn("failed to publish login event", zap.Error(err))
		}
	}

	s.logger.Info("user logged in",
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("ip", logger.MaskIP(input.IPAddress)),
	)

	return &LoginResult{User: *user, Session: *session}, nil
}

// Logout revokes the session for a token. Failures are logged and swallowed;
// logout always succeeds from the caller's perspective.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if err := s.sessions.Revoke(ctx, token, "logout"); err != nil {
		s.logger.Warn("failed to revoke session on logout", zap.Error(err))
	}
}
