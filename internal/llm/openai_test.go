package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Completer = (*OpenAIProvider)(nil)

// chatServer answers every request with handler and records decoded bodies.
func chatServer(t *testing.T, handler func(w http.ResponseWriter, got chatRequest)) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var seen []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var got chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		seen = append(seen, got)
		handler(w, got)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func replyWith(content string) func(http.ResponseWriter, chatRequest) {
	return func(w http.ResponseWriter, _ chatRequest) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			Model:   "gpt-4o-mini-2024-07-18",
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}, FinishReason: "stop"}},
			Usage:   chatUsage{PromptTokens: 120, CompletionTokens: 12},
		})
	}
}

func failWith(status int, body string) func(http.ResponseWriter, chatRequest) {
	return func(w http.ResponseWriter, _ chatRequest) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testOpenAI(url string, retries int) *OpenAIProvider {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: url}, 0.3, 5*time.Second, retries)
	p.api.retryDelay = time.Millisecond
	return p
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Run("request shape and reply metadata", func(t *testing.T) {
		srv, seen := chatServer(t, replyWith(`cat:cs.LG AND all:"graph neural networks"`))

		resp, err := testOpenAI(srv.URL, 0).Complete(context.Background(), Request{
			System:      "Translate research topics into arXiv search queries.",
			Prompt:      "graph neural networks",
			Temperature: Temperature(0.1),
			MaxTokens:   150,
		})
		require.NoError(t, err)

		assert.Equal(t, `cat:cs.LG AND all:"graph neural networks"`, resp.Content)
		assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
		assert.Equal(t, 120, resp.InputTokens)
		assert.Equal(t, 12, resp.OutputTokens)

		require.Len(t, *seen, 1)
		got := (*seen)[0]
		assert.Equal(t, defaultOpenAIModel, got.Model)
		assert.InDelta(t, 0.1, got.Temperature, 1e-9)
		assert.Equal(t, 150, got.MaxTokens)
		assert.Nil(t, got.ResponseFormat)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, chatMessage{Role: "user", Content: "graph neural networks"}, got.Messages[1])
	})

	t.Run("defaults and json mode", func(t *testing.T) {
		srv, seen := chatServer(t, replyWith(`{"research_areas": ["Machine Learning"]}`))

		_, err := testOpenAI(srv.URL, 0).Complete(context.Background(), Request{Prompt: "areas?", JSON: true})
		require.NoError(t, err)

		got := (*seen)[0]
		assert.InDelta(t, 0.3, got.Temperature, 1e-9)
		assert.Equal(t, defaultOpenAIMaxTokens, got.MaxTokens)
		require.NotNil(t, got.ResponseFormat)
		assert.Equal(t, "json_object", got.ResponseFormat.Type)
		assert.Len(t, got.Messages, 1, "no system message without System")
	})

	t.Run("reply without choices", func(t *testing.T) {
		srv, _ := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
			_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
		})

		_, err := testOpenAI(srv.URL, 0).Complete(context.Background(), Request{Prompt: "x"})
		assert.ErrorContains(t, err, "empty choices")
	})

	t.Run("context deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := testOpenAI(srv.URL, 2).Complete(ctx, Request{Prompt: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai:")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
		wantText  string
		wantType  string
	}{
		{"structured 401", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`, 1, "Incorrect API key provided", "invalid_request_error"},
		{"plain 403", http.StatusForbidden, "Forbidden: access denied", 1, "Forbidden: access denied", ""},
		{"429 retried", http.StatusTooManyRequests, `{"error":{"message":"Rate limit exceeded","type":"rate_limit_error"}}`, 2, "retries exhausted", "rate_limit_error"},
		{"500 retried", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, 2, "boom", "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv, _ := chatServer(t, func(w http.ResponseWriter, got chatRequest) {
				calls.Add(1)
				failWith(tt.status, tt.body)(w, got)
			})

			_, err := testOpenAI(srv.URL, 1).Complete(context.Background(), Request{Prompt: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantText)
			assert.Equal(t, tt.wantCalls, calls.Load())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantType, apiErr.Type)
		})
	}
}

func TestOpenAIProvider_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv, _ := chatServer(t, func(w http.ResponseWriter, got chatRequest) {
		if calls.Add(1) == 1 {
			failWith(http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)(w, got)
			return
		}
		replyWith("ok")(w, got)
	})

	resp, err := testOpenAI(srv.URL, 2).Complete(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k"}, 0.2, 0, -1)

	assert.Equal(t, defaultOpenAIBaseURL, p.api.baseURL)
	assert.Equal(t, defaultOpenAIModel, p.Model())
	assert.Equal(t, "openai", p.Provider())
	assert.Equal(t, 0, p.api.maxRetries)
	assert.Equal(t, defaultCallTimeout, p.api.httpClient.Timeout)
}
