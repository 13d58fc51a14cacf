// Package scholar is a client for the SerpAPI Google Scholar engine and
// aggregates its organic results into a researcher citation profile.
package scholar

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the SerpAPI base URL.
	DefaultBaseURL = "https://serpapi.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 1.0

	// DefaultNumResults is the default result cap per query.
	DefaultNumResults = 20

	// DefaultYearsBack limits results to the last five years.
	DefaultYearsBack = 5

	sourceName = "serpapi"
)

// Config configures the SerpAPI client. An empty APIKey disables it.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	NumResults int // "num" parameter
	YearsBack  int // as_ylo is the current year minus this
}

func (c Config) withDefaults() Config {
	c.BaseURL = cmp.Or(c.BaseURL, DefaultBaseURL)
	c.Timeout = cmp.Or(c.Timeout, DefaultTimeout)
	c.RateLimit = cmp.Or(c.RateLimit, DefaultRateLimit)
	c.NumResults = cmp.Or(c.NumResults, DefaultNumResults)
	c.YearsBack = cmp.Or(c.YearsBack, DefaultYearsBack)
	return c
}

// Client queries Google Scholar through SerpAPI.
type Client struct {
	config Config
	api    *papersources.HTTPClient
	now    func() time.Time
}

// New builds a client with its own rate-limited transport.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    sourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: 1,
	}))
}

// NewWithHTTPClient builds a client on a shared transport.
func NewWithHTTPClient(cfg Config, api *papersources.HTTPClient) *Client {
	return &Client{config: cfg.withDefaults(), api: api, now: time.Now}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

// SearchAuthor runs an author:"<name>" query restricted to recent years and
// sorted by relevance.
func (c *Client) SearchAuthor(ctx context.Context, name string) (*SearchResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s: %w", sourceName, domain.ErrFeatureDisabled)
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, `"`, ""))
	if name == "" {
		return nil, domain.NewValidationError("name", "author name is required")
	}

	searchURL, err := c.buildSearchURL(name)
	if err != nil {
		return nil, fmt.Errorf("scholar url: %w", err)
	}

	var resp SearchResponse
	if err := c.api.GetJSON(ctx, searchURL, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" && len(resp.OrganicResults) == 0 {
		// SerpAPI reports "no results" as an error string with status 200.
		if strings.Contains(strings.ToLower(resp.Error), "hasn't returned any results") {
			return &resp, nil
		}
		return nil, domain.NewExternalAPIError(sourceName, 200, resp.Error, nil)
	}
	return &resp, nil
}

func (c *Client) buildSearchURL(name string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("scholar base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/search.json"

	q := url.Values{}
	q.Set("engine", "google_scholar")
	q.Set("q", `author:"`+name+`"`)
	q.Set("as_ylo", strconv.Itoa(c.now().Year()-c.config.YearsBack))
	q.Set("num", strconv.Itoa(c.config.NumResults))
	q.Set("scisbd", "0")
	q.Set("api_key", c.config.APIKey)
	base.RawQuery = q.Encode()
	return base.String(), nil
}
