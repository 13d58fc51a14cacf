package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. The HTTP layer maps each to a status code with errors.Is, so
// every concrete error below unwraps to one of them.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrFeatureDisabled means the feature's credential is not configured.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrTimeout means a long-running upstream task did not finish in time.
	ErrTimeout   = errors.New("timed out")
	ErrUpstream  = errors.New("upstream error")
	ErrCancelled = errors.New("cancelled")
)

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// RateLimitError reports an upstream that asked us to slow down. RetryAfter
// is zero when the upstream gave no hint.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// NewRateLimitError returns a RateLimitError for source.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return "rate limited by " + e.Source
	}
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ExternalAPIError is a failed call to an upstream service. StatusCode is 0
// when no response arrived. It matches ErrUpstream and, when set, Cause.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// NewExternalAPIError returns an ExternalAPIError. cause may be nil.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

func (e *ExternalAPIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Cause}
}
