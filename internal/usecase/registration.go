package usecase

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
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

// codeTTL is the lifetime of verification and reset codes.
const codeTTL = 60 * time.Minute

var (
	// ErrEmailTaken indicates a verified account already holds the email.
	ErrEmailTaken = errors.New("account with this email already exists")
	// ErrInvalidEmail indicates the email failed format validation.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrTermsNotAccepted indicates the terms checkbox was not ticked.
	ErrTermsNotAccepted = errors.New("terms and conditions must be accepted")
	// ErrUserNotFound indicates no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified indicates the account does not need verification.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrCodeMissing indicates no verification code is on file.
	ErrCodeMissing = errors.New("no verification code on file")
	// ErrCodeExpired indicates the code on file is past its expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch indicates the submitted code does not match.
	ErrCodeMismatch = errors.New("verification code does not match")
)

// PasswordPolicyError carries every rule the candidate password violated.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return fmt.Sprintf("password requirements not met: %s", strings.Join(e.Violations, "; "))
}

// RegistrationService handles signup and email verification.
type RegistrationService struct {
	users     port.UserRepository
	hasher    *security.PasswordHasher
	validator *security.PasswordValidator
	mail      *mail.Service
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	users port.UserRepository,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	mailService *mail.Service,
	events port.EventPublisher,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		users:     users,
		hasher:    hasher,
		validator: validator,
		mail:      mailService,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

// SignupInput carries the signup form fields.
type SignupInput struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	AcceptTerms     bool
	MarketingEmails bool
	IPAddress       string
}

// SignupResult reports the outcome of a signup request.
type SignupResult struct {
	UserID               string
	Email                string
	Resent               bool
	VerificationRequired bool
}

// Signup creates an unverified account and emails a verification code. A
// second signup against an unverified account reissues the code instead of
// conflicting. Email delivery failures are logged, never surfaced; the user
// can trigger a resend by signing up again.
func (s *RegistrationService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if _, err := netmail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if !input.AcceptTerms {
		return nil, ErrTermsNotAccepted
	}

	if violations := s.validator.Validate(input.Password); len(violations) > 0 {
		return nil, &PasswordPolicyError{Violations: security.Messages(violations)}
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up existing user: %w", err)
	}

	if existing != nil {
		if existing.Verified {
			return nil, ErrEmailTaken
		}
		return s.reissueVerification(ctx, existing)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := security.GenerateNumericCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(codeTTL)

	settings := domain.DefaultSettings()
	settings.MarketingEmails = input.MarketingEmails

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Profile: domain.Profile{
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
		},
		Settings:              settings,
		Role:                  domain.RoleUser,
		Status:                domain.UserStatusActive,
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendVerification(ctx, user, code)
	s.publishRegistered(ctx, user, "password")

	s.logger.Info("new user signup",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("ip", logger.MaskIP(input.IPAddress)),
	)

	return &SignupResult{
		UserID:               user.ID,
		Email:                email,
		VerificationRequired: true,
	}, nil
}

func (s *RegistrationService) reissueVerification(ctx context.Context, existing *domain.User) (*SignupResult, error) {
	code, err := security.GenerateNumericCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	expiresAt := s.now().UTC().Add(codeTTL)
	user, err := s.users.Update(ctx, existing.ID, func(u *domain.User) {
		u.VerificationCode = &code
		u.VerificationExpiresAt = &expiresAt
	})
	if err != nil {
		return nil, fmt.Errorf("reissue verification code: %w", err)
	}

	s.sendVerification(ctx, *user, code)

	return &SignupResult{
		UserID:               user.ID,
		Email:                user.Email,
		Resent:               true,
		VerificationRequired: true,
	}, nil
}

// Verify redeems a verification code, marks the account verified, and sends
// the welcome email.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*domain.User, error) {
	normalized := domain.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if user.Verified {
		return nil, ErrAlreadyVerified
	}

	if user.VerificationCode == nil || user.VerificationExpiresAt == nil {
		return nil, ErrCodeMissing
	}

	now := s.now().UTC()
	if now.After(*user.VerificationExpiresAt) {
		return nil, ErrCodeExpired
	}

	if *user.VerificationCode != strings.TrimSpace(code) {
		return nil, ErrCodeMismatch
	}

	user, err = s.users.Update(ctx, user.ID, func(u *domain.User) {
		u.Verified = true
		u.VerificationCode = nil
		u.VerificationExpiresAt = nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark user verified: %w", err)
	}

	if err := s.mail.SendWelcomeEmail(ctx, user.Email, user.Profile.FirstName); err != nil {
		s.logger.Error("failed to send welcome email",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}

	if s.events != nil {
		event := domain.UserVerifiedEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			Email:      user.Email,
			VerifiedAt: now,
		}
		if err := s.events.PublishUserVerified(ctx, event); err != nil {
			s.logger.Warn("failed to publish user verified event", zap.Error(err))
		}
	}

	return user, nil
}

func (s *RegistrationService) sendVerification(ctx context.Context, user domain.User, code string) {
	if err := s.mail.SendVerificationEmail(ctx, user.Email, code); err != nil {
		s.logger.Error("failed to send verification email",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User, method string) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
		Method:       method,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("failed to publish user registered event", zap.Error(err))
	}
}
