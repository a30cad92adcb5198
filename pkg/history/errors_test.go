package history

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{EntryID: "abc-123"}

	if err.Error() != "history entry not found: abc-123" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound) to be true")
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}

	wrapped := fmt.Errorf("search failed: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound to unwrap")
	}
}

func TestInvalidInputError(t *testing.T) {
	tests := []struct {
		name     string
		err      *InvalidInputError
		expected string
	}{
		{
			name:     "with field",
			err:      &InvalidInputError{Field: "target", Reason: "must not be empty"},
			expected: `invalid input for field "target": must not be empty`,
		},
		{
			name:     "without field",
			err:      &InvalidInputError{Reason: "malformed entry"},
			expected: "invalid input: malformed entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Error() = %q, expected %q", tt.err.Error(), tt.expected)
			}
			if !IsInvalidInput(tt.err) {
				t.Error("expected IsInvalidInput to be true")
			}
		})
	}
}

func TestIsHelpers_NilAndUnrelated(t *testing.T) {
	if IsNotFound(nil) || IsInvalidInput(nil) {
		t.Error("nil must not match any sentinel")
	}
	plain := errors.New("boom")
	if IsNotFound(plain) || IsInvalidInput(plain) {
		t.Error("unrelated error must not match")
	}
}
