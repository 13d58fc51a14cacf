package papersources

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

const (
	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 512

	// maxRetryWait caps the pause taken for a Retry-After header.
	maxRetryWait = 30 * time.Second
)

// ObserveFunc is called after every request attempt with the upstream name,
// the response status (0 on transport failure) and the attempt duration.
type ObserveFunc func(source string, statusCode int, elapsed time.Duration)

// HTTPClientConfig configures the HTTP client. Zero values take defaults.
type HTTPClientConfig struct {
	// Source names the upstream in errors and metrics, e.g. "arxiv".
	Source string

	Timeout time.Duration

	// RateLimit is requests per second, BurstSize the bucket depth.
	RateLimit float64
	BurstSize int

	// MaxRetries defaults to 3. A negative value disables retries.
	MaxRetries int

	// RetryDelay is used when the upstream sends no usable Retry-After.
	RetryDelay time.Duration

	UserAgent string

	// APIKey is sent in APIKeyHeader. An Authorization header gets the
	// Bearer scheme.
	APIKey       string
	APIKeyHeader string

	Observe ObserveFunc
}

// HTTPClient paces, authenticates and retries requests to one upstream.
// It is safe for concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *RateLimiter
	config  HTTPClientConfig
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	c.Source = cmp.Or(c.Source, "upstream")
	c.Timeout = cmp.Or(c.Timeout, 30*time.Second)
	c.RateLimit = cmp.Or(c.RateLimit, 10)
	c.RetryDelay = cmp.Or(c.RetryDelay, time.Second)
	c.UserAgent = cmp.Or(c.UserAgent, "ResearcherDiscovery/1.0")
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = 3
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	return c
}

// NewHTTPClient returns a client for one upstream. 429 and 5xx replies to
// idempotent requests are retried, honouring Retry-After.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg = cfg.withDefaults()
	return &HTTPClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:  cfg,
	}
}

// Source returns the upstream name.
func (c *HTTPClient) Source() string {
	return c.config.Source
}

// Do sends req, waiting on the rate limiter before every attempt. When
// retries run out on a retryable status the last response is returned so
// the caller can report it. Only idempotent requests are retried: a POST is
// sent once unless it carries an Idempotency-Key header. A request body is
// replayed through GetBody, which http.NewRequest sets for in-memory readers.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.authorize(req)
	ctx := req.Context()
	maxRetries := c.config.MaxRetries
	if !idempotent(req) {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replay request body: %w", err)
			}
			req.Body = body
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		started := time.Now()
		resp, err := c.client.Do(req)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observe(status, time.Since(started))

		last := attempt >= maxRetries
		var pause time.Duration
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, err
		case err != nil:
			if last {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			pause = c.config.RetryDelay
		case !retryable(resp.StatusCode) || last:
			return resp, nil
		default:
			pause = c.retryAfter(resp)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		if err := sleep(ctx, pause); err != nil {
			return nil, err
		}
	}
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.config.Source, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// PostJSON sends body as JSON and decodes a 2xx JSON reply into out.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.config.Source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.config.Source, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// doJSON maps every failure to domain.ExternalAPIError.
func (c *HTTPClient) doJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return domain.NewExternalAPIError(c.config.Source, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(c.config.Source, resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewExternalAPIError(c.config.Source, resp.StatusCode, "malformed JSON response", err)
	}
	return nil
}

// CheckResponse returns a domain.ExternalAPIError for non-2xx responses,
// carrying a bounded snippet of the body. A 429 also wraps a rate limit error.
func CheckResponse(source string, resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var cause error
	if resp.StatusCode == http.StatusTooManyRequests {
		cause = domain.NewRateLimitError(source, 0)
	}
	return domain.NewExternalAPIError(source, resp.StatusCode, msg, cause)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey == "" || c.config.APIKeyHeader == "" {
		return
	}
	value := c.config.APIKey
	if strings.EqualFold(c.config.APIKeyHeader, "Authorization") {
		value = "Bearer " + value
	}
	req.Header.Set(c.config.APIKeyHeader, value)
}

func (c *HTTPClient) observe(status int, elapsed time.Duration) {
	if c.config.Observe != nil {
		c.config.Observe(c.config.Source, status, elapsed)
	}
}

// retryAfter reads Retry-After as seconds or an HTTP date, capped at
// maxRetryWait, and falls back to the configured delay.
func (c *HTTPClient) retryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return c.config.RetryDelay
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs > 0 {
			return min(time.Duration(secs)*time.Second, maxRetryWait)
		}
		return c.config.RetryDelay
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return min(wait, maxRetryWait)
		}
	}
	return c.config.RetryDelay
}

// idempotent follows net/http's rule for replaying requests.
func idempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	}
	_, hasKey := req.Header["Idempotency-Key"]
	_, hasXKey := req.Header["X-Idempotency-Key"]
	return hasKey || hasXKey
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status/100 == 5
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
