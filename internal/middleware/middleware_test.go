package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/ports/auth"
)

type fakeVerifier struct {
	tokens map[string]auth.Claims
}

func (f fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	c, ok := f.tokens[token]
	if !ok {
		return auth.Claims{}, errors.New("bad token")
	}
	return c, nil
}

func claimsProbe(t *testing.T, got *auth.Claims, found *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = GetClaims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthContext_DevHeaders(t *testing.T) {
	var got auth.Claims
	var found bool
	h := AuthContext(nil)(claimsProbe(t, &got, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserIDHeader, "u-1")
	req.Header.Set(DebugUserRoleHeader, "Walker")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !found || got.UserID != "u-1" || got.Role != auth.RoleWalker {
		t.Fatalf("expected walker claims for u-1, got %+v (found=%v)", got, found)
	}
}

func TestAuthContext_BearerAndCookie(t *testing.T) {
	v := fakeVerifier{tokens: map[string]auth.Claims{
		"good": {UserID: "owner-1", Role: auth.RoleOwner},
	}}

	cases := []struct {
		name  string
		setup func(r *http.Request)
		want  bool
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, true},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) }, true},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, false},
		{"debug headers ignored", func(r *http.Request) { r.Header.Set(DebugUserIDHeader, "x") }, false},
		{"no credentials", func(*http.Request) {}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got auth.Claims
			var found bool
			h := AuthContext(v)(claimsProbe(t, &got, &found))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusNoContent {
				t.Fatalf("middleware must not cut the request, got %d", rr.Code)
			}
			if found != tc.want {
				t.Fatalf("claims found=%v, want %v", found, tc.want)
			}
			if tc.want && got.UserID != "owner-1" {
				t.Fatalf("unexpected claims %+v", got)
			}
		})
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, logger.Nop())
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	// Otra IP tiene su propio bucket
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for a different client, got %d", rr.Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(5, 5, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(time.Hour)
	rl.allow("b")

	if removed := rl.Cleanup(); removed != 1 {
		t.Fatalf("expected 1 stale limiter removed, got %d", removed)
	}
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	rl := NewRateLimiter(0, 1, nil)
	called := 0
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called++ }))
	for i := 0; i < 5; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if called != 5 {
		t.Fatalf("expected all requests to pass, got %d", called)
	}
}
