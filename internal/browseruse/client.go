// Package browseruse is a client for the browser-use.com task API, which runs
// natural language browsing tasks in a remote browser.
package browseruse

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the browser-use API base URL.
	DefaultBaseURL = "https://api.browser-use.com"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 2.0

	// DefaultLLMModel is the model the remote agent runs with.
	DefaultLLMModel = "gpt-4o"

	sourceName = "browser_use"
)

// Task statuses reported by the API.
const (
	StatusCreated  = "created"
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusFinished = "finished"
	StatusStopped  = "stopped"
	StatusFailed   = "failed"
)

// Config configures the browser-use client. APIKey is sent as a bearer
// token; an empty key disables the client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
}

func (c Config) withDefaults() Config {
	c.BaseURL = cmp.Or(c.BaseURL, DefaultBaseURL)
	c.Timeout = cmp.Or(c.Timeout, DefaultTimeout)
	c.RateLimit = cmp.Or(c.RateLimit, DefaultRateLimit)
	return c
}

// TaskRequest is the body of a run-task call.
type TaskRequest struct {
	Task                 string   `json:"task"`
	AllowedDomains       []string `json:"allowed_domains,omitempty"`
	StructuredOutputJSON string   `json:"structured_output_json,omitempty"`
	LLMModel             string   `json:"llm_model,omitempty"`
	UseProxy             bool     `json:"use_proxy"`
	UseAdblock           bool     `json:"use_adblock"`
}

// CreateTaskResponse is the reply to a run-task call. Some deployments
// complete short tasks synchronously and include the output.
type CreateTaskResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status,omitempty"`
	Output           string          `json:"output,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
}

// Task is the state of a task as returned by the task endpoint.
type Task struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	Output           string          `json:"output,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	LiveURL          string          `json:"live_url,omitempty"`
}

// Client talks to the browser-use task API.
type Client struct {
	config Config
	api    *papersources.HTTPClient
}

// New builds a client whose transport carries the bearer token.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:       sourceName,
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    1,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "Authorization",
	}))
}

// NewWithHTTPClient builds a client on a shared transport, which must
// already carry the API key.
func NewWithHTTPClient(cfg Config, api *papersources.HTTPClient) *Client {
	return &Client{config: cfg.withDefaults(), api: api}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

// CreateTask submits a task and returns the service's reply.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (*CreateTaskResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s: %w", sourceName, domain.ErrFeatureDisabled)
	}
	if strings.TrimSpace(req.Task) == "" {
		return nil, domain.NewValidationError("task", "task description is required")
	}

	endpoint, err := c.endpoint("/api/v1/run-task")
	if err != nil {
		return nil, err
	}

	var resp CreateTaskResponse
	if err := c.api.PostJSON(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, domain.NewExternalAPIError(sourceName, 200, "task id missing from response", nil)
	}
	return &resp, nil
}

// GetTask fetches the current state of a task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s: %w", sourceName, domain.ErrFeatureDisabled)
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("task_id", "task id is required")
	}

	endpoint, err := c.endpoint("/api/v1/task/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var task Task
	if err := c.api.GetJSON(ctx, endpoint, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		task.ID = id
	}
	return &task, nil
}

func (c *Client) endpoint(path string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("browser-use base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + path
	return base.String(), nil
}
