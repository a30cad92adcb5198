package history

import (
	"errors"
	"fmt"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed is returned when attempting to use a closed store.
	ErrClosed = errors.New("store is closed")
)

// NotFoundError wraps ErrNotFound with the entry ID that was requested.
type NotFoundError struct {
	EntryID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("history entry not found: %s", e.EntryID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidInputError wraps ErrInvalidInput with details.
type InvalidInputError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
