package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	manager := authsvc.NewJWTManager("mw-secret", 15*time.Minute)
	handler := AuthMiddleware(manager, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewarePassesIdentityThrough(t *testing.T) {
	manager := authsvc.NewJWTManager("mw-secret", 15*time.Minute)
	token, _, err := manager.GenerateAccessToken(42, authsvc.RoleModerator)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var got authsvc.Identity
	handler := AuthMiddleware(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from request context")
		}
		got = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got.ProfileID != 42 || got.Role != authsvc.RoleModerator {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestAuthMiddlewareRejectsForeignToken(t *testing.T) {
	issuer := authsvc.NewJWTManager("other-secret", 15*time.Minute)
	token, _, err := issuer.GenerateAccessToken(42, "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	manager := authsvc.NewJWTManager("mw-secret", 15*time.Minute)
	handler := AuthMiddleware(manager, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(authsvc.RoleModerator)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/reviews/1/decision", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request: got %d want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/reviews/1/decision", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{ProfileID: 1, Role: "member"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member request: got %d want %d", rec.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodPost, "/reviews/1/decision", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{ProfileID: 1, Role: authsvc.RoleModerator}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("moderator request: got %d want %d", rec.Code, http.StatusOK)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		value string
		token string
		ok    bool
	}{
		{value: "Bearer abc123", token: "abc123", ok: true},
		{value: "bearer abc123", token: "abc123", ok: true},
		{value: "Basic abc123", ok: false},
		{value: "Bearer ", ok: false},
		{value: "", ok: false},
	}

	for _, tc := range cases {
		token, ok := extractBearerToken(tc.value)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("value %q: got (%q, %v) want (%q, %v)", tc.value, token, ok, tc.token, tc.ok)
		}
	}
}
