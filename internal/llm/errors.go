package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned by NewCompleter when the selected provider has
// no API key. Callers treat it as "AI features disabled".
var ErrNotConfigured = errors.New("llm: provider not configured")

// APIError is a failed provider call. StatusCode is 0 when no HTTP reply
// arrived.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	// Type and Code are the provider's own classification, when it sent one.
	Type string
	Code string
}

func (e *APIError) Error() string {
	kind := ""
	if e.Type != "" {
		kind = " (" + e.Type + ")"
	}
	return fmt.Sprintf("%s: status %d%s: %s", e.Provider, e.StatusCode, kind, e.Message)
}

// IsTransient reports whether the call may succeed if repeated: network
// failures, rate limiting and server errors.
func (e *APIError) IsTransient() bool {
	switch {
	case e.StatusCode == 0, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= http.StatusInternalServerError
	}
}

func isTransientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}
