package llm

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicAPIVersion       = "2023-06-01"
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024

	// The Messages API has no JSON mode; the instruction goes into the system prompt.
	jsonOnlyInstruction = "Respond with a single JSON object and nothing else."
)

// Messages API wire format.
type (
	messagesRequest struct {
		Model       string             `json:"model"`
		MaxTokens   int                `json:"max_tokens"`
		System      string             `json:"system,omitempty"`
		Messages    []anthropicMessage `json:"messages"`
		Temperature float64            `json:"temperature"`
	}
	anthropicMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	contentBlock struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}
	messagesResponse struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Role       string         `json:"role"`
		Content    []contentBlock `json:"content"`
		Model      string         `json:"model"`
		StopReason string         `json:"stop_reason"`
		Usage      anthropicUsage `json:"usage"`
	}
	anthropicUsage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	}
)

// AnthropicConfig holds the Anthropic settings.
type AnthropicConfig struct {
	APIKey string
	// Model defaults to claude-3-5-haiku-latest.
	Model   string
	BaseURL string
}

// AnthropicProvider completes prompts with the Messages API.
type AnthropicProvider struct {
	api         *apiClient
	model       string
	temperature float64
}

// NewAnthropicProvider returns a provider that retries transient failures up
// to maxRetries times.
func NewAnthropicProvider(cfg AnthropicConfig, temperature float64, timeout time.Duration, maxRetries int) *AnthropicProvider {
	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicAPIVersion)

	api := newAPIClient("anthropic", cmp.Or(cfg.BaseURL, defaultAnthropicBaseURL), timeout, maxRetries, header)
	api.decodeError = decodeAnthropicError

	return &AnthropicProvider{
		api:         api,
		model:       cmp.Or(cfg.Model, defaultAnthropicModel),
		temperature: temperature,
	}
}

// Complete returns the first text block of the reply.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	body := messagesRequest{
		Model:       p.model,
		MaxTokens:   defaultAnthropicMaxTokens,
		System:      req.System,
		Temperature: p.temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.JSON {
		body.System = strings.TrimSpace(body.System + "\n" + jsonOnlyInstruction)
	}

	var reply messagesResponse
	if err := p.api.post(ctx, "/v1/messages", body, &reply); err != nil {
		return nil, err
	}

	for _, block := range reply.Content {
		if block.Type == "text" && block.Text != "" {
			return &Response{
				Content:      block.Text,
				Model:        cmp.Or(reply.Model, p.model),
				InputTokens:  reply.Usage.InputTokens,
				OutputTokens: reply.Usage.OutputTokens,
			}, nil
		}
	}
	return nil, errors.New("anthropic: reply has no text content")
}

func (p *AnthropicProvider) Provider() string { return "anthropic" }

func (p *AnthropicProvider) Model() string { return p.model }

func decodeAnthropicError(status int, body []byte) *APIError {
	apiErr := &APIError{Provider: "anthropic", StatusCode: status, Message: string(body)}

	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Type = payload.Error.Type
	}
	return apiErr
}
