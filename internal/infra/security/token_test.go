package security

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:       "user-1",
		Email:    "user@example.com",
		Role:     domain.RoleUser,
		Verified: true,
	}
}

func TestTokenSignerRoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := NewTokenSigner("test-secret").WithClock(func() time.Time { return base })

	token, err := signer.Issue(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %s", claims.Subject)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("expected email claim, got %s", claims.Email)
	}
	if claims.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", claims.Role)
	}
	if !claims.Verified {
		t.Fatal("expected verified claim to be true")
	}
	if got := claims.ExpiresAt.Time; !got.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", base.Add(time.Hour), got)
	}
}

func TestTokenSignerRejectsExpiredToken(t *testing.T) {
	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := NewTokenSigner("test-secret").WithClock(func() time.Time { return current })

	token, err := signer.Issue(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := signer.Parse(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected ErrExpiredSessionToken, got %v", err)
	}
}

func TestTokenSignerRejectsForeignSignature(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	other := NewTokenSigner("different-secret")

	token, err := other.Issue(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	signer := NewTokenSigner("test-secret")

	for _, token := range []string{"", "   ", "not.a.token"} {
		if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidSessionToken) {
			t.Fatalf("expected ErrInvalidSessionToken for %q, got %v", token, err)
		}
	}
}

func TestGenerateNumericCodeRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode()
		if err != nil {
			t.Fatalf("GenerateNumericCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}
