// Package common defines the sentinel errors and the structured error type
// shared across the account backend. Callers match failure kinds with
// errors.Is.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// Input validation.
	ErrValidation = errors.New("validation error")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMismatch      = errors.New("refresh token mismatch")

	// Media upload errors.
	ErrUpload = errors.New("upload failed")

	// Generic server-side failure. Returned when the underlying cause must
	// not leak to the client; the cause is logged instead.
	ErrInternal = errors.New("internal error")
)

// Error pairs a failure kind with a human-readable message and an optional
// detail list. It is the structured form every failure takes at the request
// boundary.
type Error struct {
	Kind    error
	Message string
	Details []string
}

// E builds an *Error of the given kind.
func E(kind error, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, ", "))
}

// Unwrap exposes the kind, so errors.Is(err, common.ErrValidation) matches
// both bare sentinels and structured errors.
func (e *Error) Unwrap() error { return e.Kind }
