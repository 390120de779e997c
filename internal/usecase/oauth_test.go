package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
)

// newOAuthService builds the service over a fixture's store; the exchange
// configs stay empty because these tests drive the link step directly.
func newOAuthService(t *testing.T, f *fixture) *OAuthService {
	t.Helper()
	return NewOAuthService(f.users, f.sessions, f.hasher, f.events, zaptest.NewLogger(t),
		config.OAuthSettings{}, "https://urlsclickearn.xyz").WithClock(f.clock.Now)
}

func githubIdentity() *providerIdentity {
	return &providerIdentity{
		ID:        "12345",
		Email:     "Alice@Example.com",
		FirstName: "Alice",
		LastName:  "Doe",
	}
}

func TestOAuthProvisionsVerifiedAccount(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	user, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity())
	if err != nil {
		t.Fatalf("createOrLink returned error: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if !user.Verified {
		t.Fatal("provisioned account must be verified")
	}
	if user.Status != domain.UserStatusActive || user.Role != domain.RoleUser {
		t.Fatalf("expected active user role, got %s/%s", user.Status, user.Role)
	}
	if user.Profile.FirstName != "Alice" || user.Profile.LastName != "Doe" {
		t.Fatalf("expected provider profile names, got %+v", user.Profile)
	}
	if user.Settings != domain.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", user.Settings)
	}
	if !user.LinkedTo(ProviderGitHub, "12345") {
		t.Fatal("expected the github identity to be linked")
	}
	if !user.CreatedAt.Equal(f.clock.Now().UTC()) {
		t.Fatalf("expected createdAt from the clock, got %v", user.CreatedAt)
	}
	if got := f.events.count("user.registered"); got != 1 {
		t.Fatalf("expected 1 user.registered event, got %d", got)
	}
}

func TestOAuthProvisionedPasswordIsUnusable(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	user, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity())
	if err != nil {
		t.Fatalf("createOrLink returned error: %v", err)
	}
	if user.PasswordHash == "" {
		t.Fatal("expected a password hash to be stored")
	}

	// The hash is random material never shown to anyone; the account is
	// verified and active, so a password login must still fall through to
	// the credential check and fail.
	for _, guess := range []string{"", testPassword, user.PasswordHash} {
		_, err := f.auth.Login(ctx, LoginInput{Email: user.Email, Password: guess})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for guess %q, got %v", guess, err)
		}
	}
}

func TestOAuthRepeatSignInDedupsProviderLink(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	first, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity())
	if err != nil {
		t.Fatalf("first createOrLink returned error: %v", err)
	}

	// The second sign-in sees the stored record after its JSON round trip,
	// where metadata.oauthProviders comes back as []any of maps.
	second, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity())
	if err != nil {
		t.Fatalf("second createOrLink returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same account, got %s and %s", first.ID, second.ID)
	}

	stored, err := f.users.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	links := stored.ProviderLinks()
	if len(links) != 1 {
		t.Fatalf("expected a single provider link, got %+v", links)
	}
	if links[0].Provider != ProviderGitHub || links[0].ID != "12345" {
		t.Fatalf("expected the github link to survive the round trip, got %+v", links[0])
	}

	if got := f.events.count("user.registered"); got != 1 {
		t.Fatalf("expected no second user.registered event, got %d", got)
	}

	users, err := f.users.All(ctx)
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected a single account, got %d", len(users))
	}
}

func TestOAuthLinksExistingPasswordAccount(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	existing := f.signupVerified(t, "alice@example.com")
	registeredBefore := f.events.count("user.registered")

	linked, err := svc.createOrLink(ctx, ProviderGoogle, &providerIdentity{
		ID:    "g-777",
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("createOrLink returned error: %v", err)
	}
	if linked.ID != existing.ID {
		t.Fatalf("expected the existing account to be linked, got %s", linked.ID)
	}
	if !linked.LinkedTo(ProviderGoogle, "g-777") {
		t.Fatal("expected the google identity to be linked")
	}

	if got := f.events.count("user.registered"); got != registeredBefore {
		t.Fatalf("linking must not publish user.registered, got %d extra", got-registeredBefore)
	}

	users, err := f.users.All(ctx)
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected no second account, got %d", len(users))
	}
}

func TestOAuthLinkMarksUnverifiedAccountVerified(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	if _, err := f.registration.Signup(ctx, SignupInput{
		Email:       "alice@example.com",
		Password:    testPassword,
		AcceptTerms: true,
	}); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	linked, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity())
	if err != nil {
		t.Fatalf("createOrLink returned error: %v", err)
	}
	if !linked.Verified {
		t.Fatal("a provider-verified email must mark the account verified")
	}

	// The pending email verification is no longer needed for login.
	if _, err := f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword}); err != nil {
		t.Fatalf("expected password login after oauth link, got %v", err)
	}
}

func TestOAuthLinksSecondProvider(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)
	ctx := context.Background()

	if _, err := svc.createOrLink(ctx, ProviderGitHub, githubIdentity()); err != nil {
		t.Fatalf("github createOrLink returned error: %v", err)
	}
	if _, err := svc.createOrLink(ctx, ProviderGoogle, &providerIdentity{
		ID:    "g-777",
		Email: "alice@example.com",
	}); err != nil {
		t.Fatalf("google createOrLink returned error: %v", err)
	}

	stored, err := f.users.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	links := stored.ProviderLinks()
	if len(links) != 2 {
		t.Fatalf("expected both provider links, got %+v", links)
	}
	if !stored.LinkedTo(ProviderGitHub, "12345") || !stored.LinkedTo(ProviderGoogle, "g-777") {
		t.Fatalf("expected github and google links, got %+v", links)
	}
}

func TestOAuthRejectsUnknownProvider(t *testing.T) {
	f := newFixture(t)
	svc := newOAuthService(t, f)

	if _, err := svc.AuthURL("gitlab", "state"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider from AuthURL, got %v", err)
	}
	if _, err := svc.HandleCallback(context.Background(), "gitlab", "code", "", ""); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider from HandleCallback, got %v", err)
	}
}
