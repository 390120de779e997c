package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/mail"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/kvjson"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/memory"
)

// testBcryptCost keeps hashing fast in tests.
const testBcryptCost = 4

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentEmail struct {
	to      string
	subject string
	text    string
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   []sentEmail
	broken bool
}

func (m *recordingMailer) Send(_ context.Context, to, subject, _ string, textBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return errors.New("mail provider down")
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, text: textBody})
	return nil
}

func (m *recordingMailer) bySubject(fragment string) []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentEmail
	for _, e := range m.sent {
		if strings.Contains(e.subject, fragment) {
			out = append(out, e)
		}
	}
	return out
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturingPublisher) record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
}

func (p *capturingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == name {
			n++
		}
	}
	return n
}

func (p *capturingPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	p.record("user.registered")
	return nil
}

func (p *capturingPublisher) PublishUserVerified(context.Context, domain.UserVerifiedEvent) error {
	p.record("user.verified")
	return nil
}

func (p *capturingPublisher) PublishLoginSucceeded(context.Context, domain.LoginSucceededEvent) error {
	p.record("user.login")
	return nil
}

func (p *capturingPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	p.record("user.password.changed")
	return nil
}

func (p *capturingPublisher) PublishSessionRevoked(context.Context, domain.SessionRevokedEvent) error {
	p.record("session.revoked")
	return nil
}

// fixture wires the full service graph over the in-memory blob store.
type fixture struct {
	clock        *fakeClock
	users        *kvjson.UserRepository
	sessionsRepo *kvjson.SessionRepository
	attempts     *kvjson.AttemptRepository
	mailer       *recordingMailer
	events       *capturingPublisher
	hasher       *security.PasswordHasher
	sessions     *SessionService
	lockout      *LockoutPolicy
	registration *RegistrationService
	auth         *AuthService
	reset        *PasswordResetService
	maintenance  *MaintenanceService
	directory    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := memory.NewBlobStore()
	logger := zaptest.NewLogger(t)

	users := kvjson.NewUserRepository(store).WithClock(clock.Now)
	sessionsRepo := kvjson.NewSessionRepository(store)
	attempts := kvjson.NewAttemptRepository(store)

	mailer := &recordingMailer{}
	mailService := mail.NewService(mailer, "https://urlsclickearn.xyz").WithClock(clock.Now)
	events := &capturingPublisher{}

	hasher := security.NewPasswordHasher(testBcryptCost)
	validator := security.DefaultPasswordValidator(0)
	signer := security.NewTokenSigner("test-secret").WithClock(clock.Now)

	sessions := NewSessionService(sessionsRepo, users, signer, events, logger, 7*24*time.Hour, 30*24*time.Hour).WithClock(clock.Now)
	lockout := NewLockoutPolicy(users, attempts, logger, 5, 30*time.Minute).WithClock(clock.Now)
	registration := NewRegistrationService(users, hasher, validator, mailService, events, logger).WithClock(clock.Now)
	auth := NewAuthService(users, sessions, lockout, hasher, mailService, events, logger).WithClock(clock.Now)
	reset := NewPasswordResetService(users, sessions, hasher, validator, mailService, events, logger).WithClock(clock.Now)
	maintenance := NewMaintenanceService(sessionsRepo, attempts, logger).WithClock(clock.Now)
	directory := NewUserService(users, sessionsRepo).WithClock(clock.Now)

	return &fixture{
		clock:        clock,
		users:        users,
		sessionsRepo: sessionsRepo,
		attempts:     attempts,
		mailer:       mailer,
		events:       events,
		hasher:       hasher,
		sessions:     sessions,
		lockout:      lockout,
		registration: registration,
		auth:         auth,
		reset:        reset,
		maintenance:  maintenance,
		directory:    directory,
	}
}

const testPassword = "Sup3rSecret!"

// signupVerified registers and verifies a user, returning the stored record.
func (f *fixture) signupVerified(t *testing.T, email string) *domain.User {
	t.Helper()

	ctx := context.Background()
	if _, err := f.registration.Signup(ctx, SignupInput{
		Email:       email,
		Password:    testPassword,
		AcceptTerms: true,
	}); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	user, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}

	verified, err := f.registration.Verify(ctx, email, *user.VerificationCode)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	return verified
}
