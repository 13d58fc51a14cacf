// Package llm provides text completion against large language model APIs
// (OpenAI, Anthropic) for the Researcher Discovery Service.
//
// Callers build a prompt, send it through a Completer and parse the reply
// themselves. Replies are never trusted: every caller validates the content
// and falls back to deterministic behaviour when it does not fit.
//
// Example usage:
//
//	completer, err := llm.NewCompleter(cfg)
//	resp, err := completer.Complete(ctx, llm.Request{
//		System:      "You translate research topics into arXiv queries.",
//		Prompt:      "graph neural networks",
//		Temperature: llm.Temperature(0.1),
//		MaxTokens:   150,
//	})
package llm

import (
	"context"
	"strings"
)

// Request is a single-turn completion request.
type Request struct {
	// System is the system instruction (optional).
	System string

	// Prompt is the user message.
	Prompt string

	// Temperature overrides the provider default when non-nil.
	Temperature *float64

	// MaxTokens caps the reply length. Zero means provider default.
	MaxTokens int

	// JSON asks the provider for a JSON object reply where supported.
	JSON bool

	// Operation labels the request in metrics (e.g. "translate_query").
	Operation string
}

// Response is the completion result.
type Response struct {
	// Content is the raw reply text.
	Content string

	// Model is the model that produced the reply.
	Model string

	// InputTokens is the number of input tokens used.
	InputTokens int

	// OutputTokens is the number of output tokens used.
	OutputTokens int
}

// Completer defines the interface for LLM text completion.
//
// Implementations should handle provider-specific API calls, retries of
// transient failures and error wrapping while conforming to this interface.
type Completer interface {
	// Complete sends the request and returns the reply.
	// The context should be used for cancellation and deadline propagation.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// Temperature returns a pointer to t for use in Request.
func Temperature(t float64) *float64 {
	return &t
}

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, " {[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
