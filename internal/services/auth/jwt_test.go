package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	manager := NewJWTManager("unit-secret", 15*time.Minute)

	token, expiresAt, err := manager.GenerateAccessToken(42, RoleModerator)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	claims, err := manager.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ProfileID != 42 {
		t.Fatalf("unexpected profile id: %d", claims.ProfileID)
	}
	if claims.Role != RoleModerator {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Fatalf("expiry mismatch: token=%v generated=%v", claims.ExpiresAt, expiresAt)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("issuer-secret", 15*time.Minute)
	verifier := NewJWTManager("other-secret", 15*time.Minute)

	token, _, err := issuer.GenerateAccessToken(42, "")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("unit-secret", time.Minute)
	manager.now = func() time.Time {
		return time.Now().Add(-10 * time.Minute)
	}

	token, _, err := manager.GenerateAccessToken(42, "")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	if _, err := manager.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("unit-secret", time.Minute)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, err := manager.ParseAccessToken(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("raw %q: expected ErrUnauthorized, got %v", raw, err)
		}
	}
}

func TestIdentityIsModerator(t *testing.T) {
	if (Identity{Role: "member"}).IsModerator() {
		t.Fatalf("member must not be moderator")
	}
	if !(Identity{Role: RoleModerator}).IsModerator() {
		t.Fatalf("moderator role not recognized")
	}
}
