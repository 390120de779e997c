package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
	kafkainfra "github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/kafka"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/mail"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/ratelimit"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/kvjson"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/memory"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/handlers"
	httproutes "github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/routes"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, string, string, string, string) error {
	return nil
}

type testEnv struct {
	router *gin.Engine
	users  *kvjson.UserRepository
}

func newTestEnv(t *testing.T, signupLimit int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	store := memory.NewBlobStore()

	users := kvjson.NewUserRepository(store)
	sessionsRepo := kvjson.NewSessionRepository(store)
	attempts := kvjson.NewAttemptRepository(store)

	mailService := mail.NewService(discardMailer{}, "https://urlsclickearn.xyz")
	events := kafkainfra.NewStubPublisher(logger)

	hasher := security.NewPasswordHasher(4)
	validator := security.DefaultPasswordValidator(0)
	signer := security.NewTokenSigner("test-secret")

	sessions := usecase.NewSessionService(sessionsRepo, users, signer, events, logger,
		7*24*time.Hour, 30*24*time.Hour)
	lockout := usecase.NewLockoutPolicy(users, attempts, logger, 5, 30*time.Minute)
	auth := usecase.NewAuthService(users, sessions, lockout, hasher, mailService, events, logger)
	registration := usecase.NewRegistrationService(users, hasher, validator, mailService, events, logger)
	reset := usecase.NewPasswordResetService(users, sessions, hasher, validator, mailService, events, logger)
	directory := usecase.NewUserService(users, sessionsRepo)

	limitStore := ratelimit.NewMemoryStore()
	limiters := handlers.FlowLimiters{
		Signup:       ratelimit.New(limitStore, signupLimit, 15*time.Minute),
		Verify:       ratelimit.New(limitStore, 5, time.Hour),
		ResetRequest: ratelimit.New(limitStore, 3, time.Hour),
		ResetRedeem:  ratelimit.New(limitStore, 5, time.Hour),
	}

	cfg := &config.AppConfig{
		App:    config.AppSettings{Name: "accounts-test", Env: "test"},
		Cookie: config.CookieSettings{Name: "urlsclickearn_token"},
	}

	router := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
		Services: httproutes.ServiceSet{
			Auth:         auth,
			Registration: registration,
			Reset:        reset,
			Sessions:     sessions,
			Users:        directory,
		},
		Limiters: limiters,
		Store:    store,
	})

	return &testEnv{router: router, users: users}
}

func (e *testEnv) postJSON(t *testing.T, path string, body map[string]any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "urlsclickearn_token" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("expected session cookie, got %v", w.Result().Cookies())
	return nil
}

// signupAndVerify drives the full registration flow over HTTP, reading the
// verification code out of the store the way the emailed link would carry it.
func (e *testEnv) signupAndVerify(t *testing.T, email, password string) {
	t.Helper()

	w := e.postJSON(t, "/api/auth/signup", map[string]any{
		"email":       email,
		"password":    password,
		"acceptTerms": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	user, err := e.users.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user.VerificationCode == nil {
		t.Fatal("expected a pending verification code")
	}

	w = e.postJSON(t, "/api/auth/verify", map[string]any{
		"email": email,
		"code":  *user.VerificationCode,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, 3)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	env := newTestEnv(t, 3)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t, 3)
	env.signupAndVerify(t, "alice@example.com", "Sup3rSecret!")

	w := env.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				Email        string `json:"email"`
				PasswordHash string `json:"passwordHash"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success=true")
	}
	if resp.Data.User.Email != "alice@example.com" {
		t.Fatalf("expected user email in response, got %q", resp.Data.User.Email)
	}
	if resp.Data.User.PasswordHash != "" {
		t.Fatal("password hash must never reach the response body")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, 3)
	env.signupAndVerify(t, "alice@example.com", "Sup3rSecret!")

	w := env.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "WrongPassword1!",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	env := newTestEnv(t, 3)

	w := env.postJSON(t, "/api/auth/signup", map[string]any{
		"email":       "bob@example.com",
		"password":    "Sup3rSecret!",
		"acceptTerms": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d", w.Code)
	}

	w = env.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "bob@example.com",
		"password": "Sup3rSecret!",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unverified account, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignupValidationFailure(t *testing.T) {
	env := newTestEnv(t, 3)

	w := env.postJSON(t, "/api/auth/signup", map[string]any{
		"email":       "carol@example.com",
		"password":    "short",
		"acceptTerms": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Errors["password"] == "" {
		t.Fatalf("expected password violations in errors, got %v", resp.Errors)
	}
}

func TestSignupRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 2; i++ {
		w := env.postJSON(t, "/api/auth/signup", map[string]any{
			"email":       fmt.Sprintf("user%d@example.com", i),
			"password":    "Sup3rSecret!",
			"acceptTerms": true,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("signup %d: expected 200, got %d", i, w.Code)
		}
	}

	w := env.postJSON(t, "/api/auth/signup", map[string]any{
		"email":       "user9@example.com",
		"password":    "Sup3rSecret!",
		"acceptTerms": true,
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, 3)
	env.signupAndVerify(t, "alice@example.com", "Sup3rSecret!")

	login := env.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	})
	cookie := sessionCookie(t, login)

	logout := env.postJSON(t, "/api/auth/logout", map[string]any{}, cookie)
	if logout.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", logout.Code)
	}

	cleared := false
	for _, c := range logout.Result().Cookies() {
		if c.Name == "urlsclickearn_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestAdminStatsRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t, 3)
	env.signupAndVerify(t, "alice@example.com", "Sup3rSecret!")

	// No cookie at all.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", w.Code)
	}

	login := env.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	})
	cookie := sessionCookie(t, login)

	// Regular users are shut out.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d: %s", w.Code, w.Body.String())
	}
}
