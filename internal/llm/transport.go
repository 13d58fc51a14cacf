package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultCallTimeout = 60 * time.Second
	defaultRetryDelay  = time.Second
	maxRetryDelay      = 20 * time.Second
	maxReplyBytes      = 10 << 20
)

// apiClient posts JSON to a provider and retries transient failures. The
// providers only describe their wire format on top of it.
type apiClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	header     http.Header
	maxRetries int
	retryDelay time.Duration
	// decodeError turns a non-200 reply into an APIError.
	decodeError func(status int, body []byte) *APIError
}

func newAPIClient(provider, baseURL string, timeout time.Duration, maxRetries int, header http.Header) *apiClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if header == nil {
		header = http.Header{}
	}
	return &apiClient{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		header:     header,
		maxRetries: max(maxRetries, 0),
		retryDelay: defaultRetryDelay,
	}
}

// post sends in to path and decodes a 200 reply into out. Attempts after the
// first wait retryDelay, doubling each time up to maxRetryDelay.
func (c *apiClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: gave up waiting to retry: %w", c.provider, ctx.Err())
			case <-timer.C:
			}
			delay = min(delay*2, maxRetryDelay)
		}

		lastErr = c.once(ctx, path, payload, out)
		if lastErr == nil || !isTransientError(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%s: retries exhausted after %d attempts: %w", c.provider, c.maxRetries+1, lastErr)
}

func (c *apiClient) once(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: request failed: %w", c.provider, err)
		}
		// StatusCode 0 marks a network failure, which is retried.
		return &APIError{Provider: c.provider, Type: "network_error", Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return &APIError{Provider: c.provider, Type: "network_error", Message: "read reply: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		if c.decodeError != nil {
			return c.decodeError(resp.StatusCode, body)
		}
		return &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", c.provider, err)
	}
	return nil
}
