package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestServiceError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Empty input",
			code:      ErrCodeEmptyInput,
			message:   "Input text cannot be empty",
			details:   "received only whitespace",
			requestID: "req-123",
		},
		{
			name:      "History failure",
			code:      ErrCodeHistory,
			message:   "Assessment history unavailable",
			details:   "sqlite: database is locked",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("age", "must be between 1 and 120", 130)

	expected := "validation error for field 'age': must be between 1 and 120"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if err.Value != 130 {
		t.Errorf("Expected value 130, got %v", err.Value)
	}
}

func TestEmptyInputErrorMatchesSentinel(t *testing.T) {
	var err error = &EmptyInputError{Length: 3}

	if !errors.Is(err, ErrEmptyInput) {
		t.Fatal("EmptyInputError should match ErrEmptyInput")
	}

	wrapped := fmt.Errorf("processing symptoms: %w", err)
	if !errors.Is(wrapped, ErrEmptyInput) {
		t.Error("wrapped EmptyInputError should still match ErrEmptyInput")
	}

	var target *EmptyInputError
	if !errors.As(wrapped, &target) || target.Length != 3 {
		t.Errorf("errors.As should recover the length, got %+v", target)
	}
}

func TestBackendError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBackendError("entity", "recognize", cause)

	if !errors.Is(err, ErrBackendUnavailable) {
		t.Error("BackendError should match ErrBackendUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("BackendError should unwrap to its cause")
	}
	if errors.Is(err, ErrEmptyInput) {
		t.Error("BackendError must not match ErrEmptyInput")
	}

	expected := "entity backend recognize: connection refused"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	bare := NewBackendError("chat", "complete", nil)
	if bare.Error() != "chat backend complete: backend unavailable" {
		t.Errorf("unexpected message for nil cause: %q", bare.Error())
	}
}
