package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus_MapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Validation("rating must be between 1 and 5"), http.StatusBadRequest, "validation_error"},
		{Forbidden("not the owner"), http.StatusForbidden, "forbidden"},
		{NotFound("walk request"), http.StatusNotFound, "not_found"},
		{Conflict("request is %s", "completed"), http.StatusConflict, "state_conflict"},
		{Persistence("insert rating", errors.New("conn reset")), http.StatusInternalServerError, "persistence_error"},
		{fmt.Errorf("wrapped twice: %w", Conflict("x")), http.StatusConflict, "state_conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
		if got := Code(tc.err); got != tc.code {
			t.Fatalf("Code(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}

func TestPersistence_KeepsClassifiedErrors(t *testing.T) {
	inner := Conflict("rating already exists")
	err := Persistence("insert rating", inner)
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected conflict to survive, got %v", err)
	}
	if errors.Is(err, ErrPersistence) {
		t.Fatalf("classified error should not be re-wrapped as persistence")
	}
	if Persistence("noop", nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestMessage_HidesInternalDetail(t *testing.T) {
	err := Persistence("select", errors.New("password=secret"))
	if got := Message(err); got != "internal error" {
		t.Fatalf("expected generic message, got %q", got)
	}
	if got := Message(Validation("location required")); got != "validation error: location required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsHelpers(t *testing.T) {
	wrapped := fmt.Errorf("accept: %w", Conflict("walk request is %s", "accepted"))

	if !IsConflict(wrapped) || IsNotFound(wrapped) {
		t.Fatalf("IsConflict/IsNotFound mismatch for %v", wrapped)
	}
	if !IsNotFound(NotFound("dog")) || !IsValidation(Validation("bad")) || !IsForbidden(Forbidden("no")) {
		t.Fatalf("kind helpers must match their constructors")
	}
	if !IsUnauthenticated(ErrUnauthenticated) || IsUnauthenticated(errors.New("other")) {
		t.Fatalf("IsUnauthenticated mismatch")
	}
}
