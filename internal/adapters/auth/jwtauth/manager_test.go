package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"dog-walk-service/internal/ports/auth"
)

const testSecret = "test-secret-0123456789"

func TestManager_IssueVerifyRoundTrip(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	in := auth.Claims{UserID: "u-1", Username: "bobwalker", Role: auth.RoleWalker}
	token, exp, err := m.Issue(context.Background(), in)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expiry in the past: %v", exp)
	}

	got, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != in {
		t.Fatalf("claims mismatch: got %+v want %+v", got, in)
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m, _ := NewManager(Config{Secret: testSecret, TTL: time.Minute})
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	token, _, err := m.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleOwner})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestManager_RejectsOtherSecret(t *testing.T) {
	a, _ := NewManager(Config{Secret: testSecret})
	b, _ := NewManager(Config{Secret: "another-secret-abcdefgh"})

	token, _, err := a.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleOwner})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := a.Verify(context.Background(), "  "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestNewManager_ShortSecret(t *testing.T) {
	if _, err := NewManager(Config{Secret: "short"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
