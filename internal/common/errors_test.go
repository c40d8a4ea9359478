package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestE_MatchesKindWithErrorsIs(t *testing.T) {
	t.Parallel()

	err := E(ErrValidation, "missing required fields", "email", "password")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("errors.Is must match the kind, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("must not match a different kind")
	}
}

func TestE_MatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("register: %w", E(ErrDuplicate, "email already taken"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("errors.Is must match through fmt wrapping, got %v", err)
	}
}

func TestError_MessageFormatting(t *testing.T) {
	t.Parallel()

	if got := E(ErrUpload, "avatar upload failed").Error(); got != "avatar upload failed" {
		t.Fatalf("unexpected message: %q", got)
	}

	withDetails := E(ErrValidation, "missing required fields", "username", "email")
	want := "missing required fields: username, email"
	if got := withDetails.Error(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
