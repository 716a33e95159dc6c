package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. RPC servers map these to
// status codes; the gateway maps them to HTTP statuses.
var (
	ErrUnauthenticated = errors.New("missing or invalid credential")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrQuotaExceeded   = errors.New("daily quota exceeded")
	ErrQueueFull       = errors.New("queue full")
	ErrUnavailable     = errors.New("service unavailable")
)

// ValidationError marks input that failed schema or range validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a field-scoped validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitError carries the retry hint for a rejected request
type RateLimitError struct {
	RetryAfterSeconds int
	Window            string // "minute" or "hour"
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window", e.Window)
}
