package domain

import (
	"errors"
	"fmt"
	"time"
)

// ServiceError represents a standardized error response
type ServiceError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeEmptyInput     = "EMPTY_INPUT"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeHistory        = "HISTORY_ERROR"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// NewServiceError creates a new ServiceError with timestamp
func NewServiceError(code, message, details, requestID string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ErrEmptyInput is matched with errors.Is against an *EmptyInputError.
var ErrEmptyInput = errors.New("input text cannot be empty")

// EmptyInputError is returned by the NLP stage when the text is empty or
// whitespace-only. It is the only error that crosses ProcessSymptoms.
type EmptyInputError struct {
	Length int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s (received %d characters of whitespace)", ErrEmptyInput.Error(), e.Length)
}

// Is lets errors.Is(err, ErrEmptyInput) succeed.
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// ErrBackendUnavailable is matched with errors.Is against a *BackendError.
var ErrBackendUnavailable = errors.New("backend unavailable")

// BackendError is the tagged failure of an optional external backend call.
// It never leaves the component that owns the corresponding fallback.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s backend %s: %s", e.Backend, e.Op, ErrBackendUnavailable.Error())
	}
	return fmt.Sprintf("%s backend %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBackendUnavailable) succeed.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// NewBackendError wraps err as a failure of the named backend operation.
func NewBackendError(backend, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Err: err}
}

// GenerationFailure marks a failure of the rule-based plan generator. It is
// recovered at the recommendation engine boundary and replaced by the static plan.
type GenerationFailure struct {
	Reason string
}

func (e *GenerationFailure) Error() string {
	return "wellness plan generation failed: " + e.Reason
}
