package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(_ context.Context, u User) error {
	for _, other := range r.byID {
		if strings.EqualFold(other.Username, u.Username) {
			return apperr.Conflict("username already taken")
		}
		if strings.EqualFold(other.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (r *testRepo) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user")
}

func (r *testRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func newTestService() *Service {
	s := NewService(newTestRepo())
	s.hashCost = bcrypt.MinCost
	return s
}

// -------------------------
// Tests
// -------------------------

func TestRegister_HashesPasswordAndNormalizes(t *testing.T) {
	s := newTestService()

	u, err := s.Register(context.Background(), RegisterInput{
		Username: "  alice123 ",
		Email:    "Alice@Example.com",
		Password: "password123",
		Role:     "Owner",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.Username != "alice123" || u.Email != "alice@example.com" || u.Role != auth.RoleOwner {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "password123" {
		t.Fatalf("password stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("hash does not match: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestService()

	cases := []RegisterInput{
		{Username: "al", Email: "a@example.com", Password: "password123", Role: "owner"},
		{Username: "al ice", Email: "a@example.com", Password: "password123", Role: "owner"},
		{Username: "alice", Email: "not-an-email", Password: "password123", Role: "owner"},
		{Username: "alice", Email: "a@example.com", Password: "short", Role: "owner"},
		{Username: "alice", Email: "a@example.com", Password: "password123", Role: "admin"},
	}
	for _, in := range cases {
		_, err := s.Register(context.Background(), in)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	in := RegisterInput{Username: "bobwalker", Email: "bob@example.com", Password: "password123", Role: "walker"}
	if _, err := s.Register(ctx, in); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	in.Email = "other@example.com"
	if _, err := s.Register(ctx, in); !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("expected conflict on duplicate username, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, RegisterInput{Username: "bobwalker", Email: "bob@example.com", Password: "password123", Role: "walker"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	u, err := s.Authenticate(ctx, "bobwalker", "password123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.ID != reg.ID {
		t.Fatalf("expected %s, got %s", reg.ID, u.ID)
	}

	// Usuario inexistente y password incorrecto dan el mismo error
	for _, tc := range []struct{ user, pass string }{
		{"bobwalker", "wrong-password"},
		{"nobody", "password123"},
		{"", ""},
	} {
		_, err := s.Authenticate(ctx, tc.user, tc.pass)
		if !errors.Is(err, apperr.ErrUnauthenticated) || !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %q, got %v", tc.user, err)
		}
	}
}
