// Package arxiv implements the arXiv paper source: query URL building, a
// tolerant Atom entry scanner and client-side date and category filters.
package arxiv

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
)

// Client defaults. arXiv asks API users to stay at or below three requests
// per second.
const (
	DefaultBaseURL    = "https://export.arxiv.org/api"
	DefaultRateLimit  = 3.0
	DefaultBurstSize  = 1
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 10

	maxFeedBytes = 10 << 20
	sourceName   = "arxiv"
)

// Config configures the arXiv client. Zero fields take the defaults above.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	BurstSize int
	// MaxResults applies when a search does not set its own limit.
	MaxResults int
}

func (c Config) withDefaults() Config {
	c.BaseURL = cmp.Or(c.BaseURL, DefaultBaseURL)
	c.Timeout = cmp.Or(c.Timeout, DefaultTimeout)
	c.RateLimit = cmp.Or(c.RateLimit, DefaultRateLimit)
	c.BurstSize = cmp.Or(c.BurstSize, DefaultBurstSize)
	c.MaxResults = cmp.Or(c.MaxResults, DefaultMaxResults)
	return c
}

// Client searches the arXiv Atom API.
type Client struct {
	config Config
	client *papersources.HTTPClient
}

var (
	_ papersources.PaperSource  = (*Client)(nil)
	_ papersources.AuthorSource = (*Client)(nil)
)

// New returns a client with its own rate-limited HTTP client.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:    sourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	}))
}

// NewWithHTTPClient returns a client that sends through httpClient, so
// callers can share its limiter and metrics hook.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	return &Client{config: cfg.withDefaults(), client: httpClient}
}

// Name implements papersources.PaperSource.
func (c *Client) Name() string { return sourceName }

// Search queries arXiv with the structured query and applies the client-side
// date and category filters. Malformed entries are skipped and counted.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	started := time.Now()

	if params.Query.IsEmpty() {
		return nil, domain.NewValidationError("query", "structured query is empty")
	}

	queryURL, err := c.queryURL(params)
	if err != nil {
		return nil, fmt.Errorf("arxiv query URL: %w", err)
	}

	body, err := c.fetch(ctx, queryURL)
	if err != nil {
		return nil, err
	}

	entries, total := scanFeed(body)
	result := &papersources.SearchResult{
		Papers:       make([]domain.Paper, 0, len(entries)),
		TotalResults: total,
		Source:       sourceName,
	}

	for _, e := range entries {
		paper, ok := toPaper(e)
		if !ok {
			result.Skipped++
			continue
		}
		if !keep(paper, params) {
			result.Filtered++
			continue
		}
		result.Papers = append(result.Papers, paper)
	}

	result.SearchDuration = time.Since(started)
	return result, nil
}

// SearchByAuthor returns up to maxResults papers listing name as an author,
// newest first.
func (c *Client) SearchByAuthor(ctx context.Context, name string, maxResults int) ([]domain.Paper, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "author name is required")
	}

	result, err := c.Search(ctx, papersources.SearchParams{
		Query:      AuthorQuery(name),
		MaxResults: maxResults,
		SortBy:     domain.SortBySubmittedDate,
		SortOrder:  domain.SortOrderDescending,
	})
	if err != nil {
		return nil, err
	}

	papers := result.Papers
	slices.SortStableFunc(papers, func(a, b domain.Paper) int {
		return b.Published.Compare(a.Published)
	})
	return papers, nil
}

// AuthorQuery builds the author search expression for name.
func AuthorQuery(name string) domain.StructuredQuery {
	name = strings.ReplaceAll(strings.TrimSpace(name), `"`, "")
	if strings.Contains(name, " ") {
		return domain.StructuredQuery(`au:"` + name + `"`)
	}
	return domain.StructuredQuery("au:" + name)
}

// keep applies the client-side filters.
func keep(p domain.Paper, params papersources.SearchParams) bool {
	if params.DateFrom != nil && !p.PublishedAfter(*params.DateFrom) {
		return false
	}
	return p.HasCategory(params.Categories)
}

func (c *Client) fetch(ctx context.Context, queryURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return "", fmt.Errorf("arxiv request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.NewExternalAPIError(sourceName, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := papersources.CheckResponse(sourceName, resp); err != nil {
		return "", err
	}

	feed, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", domain.NewExternalAPIError(sourceName, resp.StatusCode, "reading feed", err)
	}
	return string(feed), nil
}

// queryURL builds {base}/query with the search, paging and sort parameters.
// Relevance, descending is the default order.
func (c *Client) queryURL(params papersources.SearchParams) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/query"

	limit := params.MaxResults
	if limit <= 0 {
		limit = c.config.MaxResults
	}

	u.RawQuery = url.Values{
		"search_query": {params.Query.String()},
		"start":        {strconv.Itoa(params.Offset)},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {string(cmp.Or(params.SortBy, domain.SortByRelevance))},
		"sortOrder":    {string(cmp.Or(params.SortOrder, domain.SortOrderDescending))},
	}.Encode()
	return u.String(), nil
}
