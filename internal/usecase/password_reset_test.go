package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRequestResetIssuesCodeForEligibleAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupVerified(t, "alice@example.com")

	if err := f.reset.RequestReset(ctx, "Alice@Example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	user, _ := f.users.FindByEmail(ctx, "alice@example.com")
	if user.ResetCode == nil || len(*user.ResetCode) != 6 {
		t.Fatalf("expected 6-digit reset code, got %v", user.ResetCode)
	}
	if !user.ResetExpiresAt.Equal(f.clock.Now().Add(60 * time.Minute)) {
		t.Fatalf("unexpected reset code expiry: %v", user.ResetExpiresAt)
	}

	if got := len(f.mailer.bySubject("Password Reset")); got != 1 {
		t.Fatalf("expected 1 reset email, got %d", got)
	}
}

func TestRequestResetIsEnumerationResistant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Unknown account: same nil result, no email.
	if err := f.reset.RequestReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("RequestReset for unknown email returned error: %v", err)
	}

	// Unverified account: also silently skipped.
	if _, err := f.registration.Signup(ctx, SignupInput{
		Email:       "bob@example.com",
		Password:    testPassword,
		AcceptTerms: true,
	}); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if err := f.reset.RequestReset(ctx, "bob@example.com"); err != nil {
		t.Fatalf("RequestReset for unverified email returned error: %v", err)
	}

	if got := len(f.mailer.bySubject("Password Reset")); got != 0 {
		t.Fatalf("expected no reset emails, got %d", got)
	}
}

func TestRequestResetSurfacesMailFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupVerified(t, "alice@example.com")
	f.mailer.broken = true

	if err := f.reset.RequestReset(ctx, "alice@example.com"); err == nil {
		t.Fatal("expected error when reset email cannot be delivered")
	}
}

func TestResetReplacesPasswordAndRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupVerified(t, "alice@example.com")

	// Two live sessions that must both die.
	first, err := f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	f.clock.Advance(time.Minute)
	second, err := f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := f.reset.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	user, _ := f.users.FindByEmail(ctx, "alice@example.com")

	const newPassword = "N3wSecret!!"
	if err := f.reset.Reset(ctx, "alice@example.com", *user.ResetCode, newPassword); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	updated, _ := f.users.FindByEmail(ctx, "alice@example.com")
	if updated.ResetCode != nil || updated.ResetExpiresAt != nil {
		t.Fatal("reset code not cleared")
	}
	if updated.FailedLoginAttempts != 0 || updated.LockedUntil != nil {
		t.Fatal("failure counters not reset")
	}

	for _, token := range []string{first.Session.Token, second.Session.Token} {
		if _, _, err := f.sessions.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected revoked session, got %v", err)
		}
	}

	// Old password dead, new password works.
	if _, err := f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: newPassword}); err != nil {
		t.Fatalf("login with new password returned error: %v", err)
	}

	if f.events.count("user.password.changed") != 1 {
		t.Fatal("expected user.password.changed event")
	}
	if got := len(f.mailer.bySubject("password has been changed")); got != 1 {
		t.Fatalf("expected password changed email, got %d", got)
	}
}

func TestResetRejectsSamePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupVerified(t, "alice@example.com")

	if err := f.reset.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	user, _ := f.users.FindByEmail(ctx, "alice@example.com")

	if err := f.reset.Reset(ctx, "alice@example.com", *user.ResetCode, testPassword); !errors.Is(err, ErrSamePassword) {
		t.Fatalf("expected ErrSamePassword, got %v", err)
	}
}

func TestResetRejectsExpiredAndMismatchedCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signupVerified(t, "alice@example.com")

	if err := f.reset.Reset(ctx, "alice@example.com", "123456", "N3wSecret!!"); !errors.Is(err, ErrCodeMissing) {
		t.Fatalf("expected ErrCodeMissing, got %v", err)
	}

	if err := f.reset.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	user, _ := f.users.FindByEmail(ctx, "alice@example.com")

	if err := f.reset.Reset(ctx, "alice@example.com", "000000", "N3wSecret!!"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	f.clock.Advance(61 * time.Minute)
	if err := f.reset.Reset(ctx, "alice@example.com", *user.ResetCode, "N3wSecret!!"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	if err := f.reset.Reset(ctx, "ghost@example.com", "123456", "N3wSecret!!"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
