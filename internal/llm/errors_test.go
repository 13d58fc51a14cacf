package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"openai: status 429 (rate_limit_error): rate limit exceeded",
		(&APIError{Provider: "openai", StatusCode: 429, Message: "rate limit exceeded", Type: "rate_limit_error"}).Error())

	assert.Equal(t,
		"anthropic: status 500: internal server error",
		(&APIError{Provider: "anthropic", StatusCode: 500, Message: "internal server error"}).Error())

	// Code is kept for callers but not rendered.
	assert.Equal(t,
		"openai: status 401: invalid api key",
		(&APIError{Provider: "openai", StatusCode: 401, Message: "invalid api key", Code: "invalid_api_key"}).Error())
}

func TestAPIError_IsTransient(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{
		0:   true,
		429: true,
		500: true,
		502: true,
		503: true,
		599: true,
		200: false,
		400: false,
		401: false,
		403: false,
		404: false,
		422: false,
	} {
		assert.Equal(t, want, (&APIError{StatusCode: status}).IsTransient(), "status %d", status)
	}
}
