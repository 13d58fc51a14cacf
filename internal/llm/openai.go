package llm

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenAIMaxTokens = 1024
)

// Chat Completions wire format. Only the fields this service reads are
// declared.
type (
	chatRequest struct {
		Model          string          `json:"model"`
		Messages       []chatMessage   `json:"messages"`
		Temperature    float64         `json:"temperature"`
		MaxTokens      int             `json:"max_tokens,omitempty"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
	}
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	responseFormat struct {
		Type string `json:"type"`
	}
	chatResponse struct {
		ID      string       `json:"id"`
		Model   string       `json:"model"`
		Choices []chatChoice `json:"choices"`
		Usage   chatUsage    `json:"usage"`
	}
	chatChoice struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	}
	chatUsage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	}
)

// OpenAIConfig holds the OpenAI settings.
type OpenAIConfig struct {
	APIKey string
	// Model defaults to gpt-4o-mini.
	Model string
	// BaseURL allows OpenAI-compatible gateways.
	BaseURL string
}

// OpenAIProvider completes prompts with the Chat Completions API.
type OpenAIProvider struct {
	api         *apiClient
	model       string
	temperature float64
}

// NewOpenAIProvider returns a provider that retries transient failures up to
// maxRetries times.
func NewOpenAIProvider(cfg OpenAIConfig, temperature float64, timeout time.Duration, maxRetries int) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	api := newAPIClient("openai", baseURL, timeout, maxRetries, header)
	api.decodeError = decodeOpenAIError

	return &OpenAIProvider{api: api, model: model, temperature: temperature}
}

// Complete sends req as a system and user message pair. JSON mode maps to the
// json_object response format.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	body := chatRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   defaultOpenAIMaxTokens,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var reply chatResponse
	if err := p.api.post(ctx, "/chat/completions", body, &reply); err != nil {
		return nil, err
	}
	if len(reply.Choices) == 0 {
		return nil, errors.New("openai: empty choices in reply")
	}

	return &Response{
		Content:      reply.Choices[0].Message.Content,
		Model:        cmp.Or(reply.Model, p.model),
		InputTokens:  reply.Usage.PromptTokens,
		OutputTokens: reply.Usage.CompletionTokens,
	}, nil
}

func (p *OpenAIProvider) Provider() string { return "openai" }

func (p *OpenAIProvider) Model() string { return p.model }

func decodeOpenAIError(status int, body []byte) *APIError {
	apiErr := &APIError{Provider: "openai", StatusCode: status, Message: string(body)}

	var payload struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Type = payload.Error.Type
		apiErr.Code = payload.Error.Code
	}
	return apiErr
}
