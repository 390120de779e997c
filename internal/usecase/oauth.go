package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository"
)

const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

var (
	// ErrUnsupportedProvider indicates the provider name is not configured.
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	// ErrProviderEmail indicates the provider returned no verified email.
	ErrProviderEmail = errors.New("no verified email returned by provider")
)

// providerIdentity is the provider-agnostic profile extracted after the
// token exchange.
type providerIdentity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// OAuthService implements create-or-link sign-in through external identity
// providers.
type OAuthService struct {
	users    port.UserRepository
	sessions *SessionService
	hasher   *security.PasswordHasher
	events   port.EventPublisher
	logger   *zap.Logger
	configs  map[string]*oauth2.Config
	now      func() time.Time
}

// NewOAuthService wires the configured providers. A provider with no client
// ID is left out and rejected at request time.
func NewOAuthService(
	users port.UserRepository,
	sessions *SessionService,
	hasher *security.PasswordHasher,
	events port.EventPublisher,
	logger *zap.Logger,
	cfg config.OAuthSettings,
	baseURL string,
) *OAuthService {
	configs := map[string]*oauth2.Config{}

	if cfg.GitHub.ClientID != "" {
		configs[ProviderGitHub] = &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			Endpoint:     endpoints.GitHub,
			RedirectURL:  fmt.Sprintf("%s/api/auth/oauth/callback?provider=%s", baseURL, ProviderGitHub),
			Scopes:       []string{"user:email"},
		}
	}

	if cfg.Google.ClientID != "" {
		configs[ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  fmt.Sprintf("%s/api/auth/oauth/callback?provider=%s", baseURL, ProviderGoogle),
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	return &OAuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		events:   events,
		logger:   logger,
		configs:  configs,
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *OAuthService) WithClock(now func() time.Time) *OAuthService {
	s.now = now
	return s
}

// AuthURL returns the provider's authorization URL for the given state.
func (s *OAuthService) AuthURL(provider, state string) (string, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return "", ErrUnsupportedProvider
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleCallback exchanges the authorization code, resolves the provider
// identity, creates or links the local account, and issues a session.
func (s *OAuthService) HandleCallback(ctx context.Context, provider, code, ip, userAgent string) (*LoginResult, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange %s authorization code: %w", provider, err)
	}

	client := cfg.Client(ctx, token)

	var identity *providerIdentity
	switch provider {
	case ProviderGitHub:
		identity, err = fetchGitHubIdentity(ctx, client)
	case ProviderGoogle:
		identity, err = fetchGoogleIdentity(ctx, client)
	}
	if err != nil {
		return nil, err
	}

	user, err := s.createOrLink(ctx, provider, identity)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, *user, ip, userAgent, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth login",
		zap.String("provider", provider),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return &LoginResult{User: *user, Session: *session}, nil
}

// createOrLink attaches the provider identity to an existing account matched
// by email, or provisions a verified account with an unusable password.
func (s *OAuthService) createOrLink(ctx context.Context, provider string, identity *providerIdentity) (*domain.User, error) {
	email := domain.NormalizeEmail(identity.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if existing != nil {
		if existing.LinkedTo(provider, identity.ID) && existing.Verified {
			return existing, nil
		}
		user, err := s.users.Update(ctx, existing.ID, func(u *domain.User) {
			u.AddProviderLink(provider, identity.ID)
			u.Verified = true
		})
		if err != nil {
			return nil, fmt.Errorf("link provider identity: %w", err)
		}
		return user, nil
	}

	// The account is provider-only; the random password is never disclosed,
	// so password login stays impossible until a reset.
	random, err := security.GenerateUnusablePassword()
	if err != nil {
		return nil, fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := s.hasher.Hash(random)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Verified:     true,
		Profile: domain.Profile{
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		},
		Settings:  domain.DefaultSettings(),
		Role:      domain.RoleUser,
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.AddProviderLink(provider, identity.ID)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}

	if s.events != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Email:        user.Email,
			RegisteredAt: now,
			Method:       provider,
		}
		if err := s.events.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("failed to publish user registered event", zap.Error(err))
		}
	}

	return &user, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	return nil
}

func fetchGitHubIdentity(ctx context.Context, client *http.Client) (*providerIdentity, error) {
	var profile struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := fetchJSON(ctx, client, "https://api.github.com/user", &profile); err != nil {
		return nil, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := fetchJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
		return nil, err
	}

	email := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}
	if email == "" {
		return nil, ErrProviderEmail
	}

	return &providerIdentity{
		ID:        strconv.FormatInt(profile.ID, 10),
		Email:     email,
		FirstName: profile.Name,
	}, nil
}

func fetchGoogleIdentity(ctx context.Context, client *http.Client) (*providerIdentity, error) {
	var profile struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := fetchJSON(ctx, client, "https://www.googleapis.com/oauth2/v3/userinfo", &profile); err != nil {
		return nil, err
	}

	if profile.Email == "" || !profile.EmailVerified {
		return nil, ErrProviderEmail
	}

	return &providerIdentity{
		ID:        profile.Sub,
		Email:     profile.Email,
		FirstName: profile.GivenName,
		LastName:  profile.FamilyName,
	}, nil
}
