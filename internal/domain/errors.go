package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks malformed or missing input. No state is mutated.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when joining with a name that is already present.
	ErrConflict = errors.New("participant already exists")

	// ErrNotFound is returned for unknown identities, and by ExpireOne when no
	// participant is past the threshold.
	ErrNotFound = errors.New("participant not found")

	// ErrStoreUnavailable wraps any failure of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries one human-readable detail per rejected field.
type ValidationError struct {
	Details []string
}

// NewValidationError builds a ValidationError from the given details.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
