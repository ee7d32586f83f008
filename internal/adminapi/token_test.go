package adminapi

import (
	"errors"
	"testing"
	"time"
)

var tokenTestClock = func() time.Time {
	return time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)
}

func newTestTokenManager(secret string) *TokenManager {
	return NewTokenManager(TokenManagerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "registry-core",
		Audience:      "registry-admin",
		TokenTTL:      30 * time.Minute,
		Clock:         tokenTestClock,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	manager := newTestTokenManager("test-secret")

	token, expiresIn, err := manager.IssueToken("ops@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if expiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry seconds %d", expiresIn)
	}

	subject, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if subject != "ops@example.com" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestTokenRejectsEmptySubject(t *testing.T) {
	manager := newTestTokenManager("test-secret")
	if _, _, err := manager.IssueToken(""); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestTokenManager("secret-a")
	validator := newTestTokenManager("secret-b")

	token, _, err := issuer.IssueToken("ops@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := validator.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer := newTestTokenManager("test-secret")
	token, _, err := issuer.IssueToken("ops@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	late := NewTokenManager(TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "registry-core",
		Audience:      "registry-admin",
		TokenTTL:      30 * time.Minute,
		Clock:         func() time.Time { return tokenTestClock().Add(31 * time.Minute) },
	})
	if _, err := late.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenRejectsWrongAudience(t *testing.T) {
	other := NewTokenManager(TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "registry-core",
		Audience:      "some-other-service",
		TokenTTL:      30 * time.Minute,
		Clock:         tokenTestClock,
	})
	token, _, err := other.IssueToken("ops@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	manager := newTestTokenManager("test-secret")
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong audience, got %v", err)
	}
}
