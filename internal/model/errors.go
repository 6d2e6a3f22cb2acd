package model

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned when a join names an already registered participant.
	ErrAlreadyExists = errors.New("participant already registered")

	// ErrNotFound is returned when a referenced participant or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a caller mutates a message it does not own.
	ErrForbidden = errors.New("caller does not own this message")
)

// ValidationError reports malformed input: an empty required field, a
// disallowed message type, or a non-positive limit. It is always
// recoverable by the caller and never retried internally.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError builds a ValidationError with a printf-style reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
