// Package papersources provides interfaces and shared HTTP plumbing for
// paper repository clients.
//
// A paper source turns a structured query into a list of domain.Paper values.
// The arXiv client is the production implementation; the interfaces let the
// search and enrichment services be tested against fakes.
//
// Example usage:
//
//	source := arxiv.New(cfg, httpClient)
//	result, err := source.Search(ctx, papersources.SearchParams{
//		Query:      `cat:cs.LG AND all:"graph neural networks"`,
//		MaxResults: 10,
//	})
package papersources

import (
	"context"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// SearchParams defines the parameters for searching papers.
type SearchParams struct {
	// Query is the structured search expression (required).
	Query domain.StructuredQuery

	// MaxResults limits the number of papers requested.
	// A value of 0 uses the source's default limit.
	MaxResults int

	// Offset specifies the starting position for paginated results.
	Offset int

	// SortBy and SortOrder select the ordering. Empty values use the
	// source's defaults.
	SortBy    domain.SortBy
	SortOrder domain.SortOrder

	// DateFrom drops papers published before this time. Applied client-side.
	DateFrom *time.Time

	// Categories keeps only papers sharing at least one of these categories.
	// Applied client-side.
	Categories []string
}

// SearchResult contains the results from a paper source search operation.
type SearchResult struct {
	// Papers contains the papers that passed the client-side filters.
	Papers []domain.Paper

	// TotalResults is the total reported by the source, when available.
	TotalResults int

	// Skipped counts entries dropped because they were malformed.
	Skipped int

	// Filtered counts well-formed entries dropped by the client-side filters.
	Filtered int

	// Source identifies which paper source provided these results.
	Source string

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// PaperSource defines the interface that paper source clients implement.
type PaperSource interface {
	// Search queries the paper source for papers matching the given parameters.
	// The context should be used for cancellation and deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Skip malformed entries instead of failing the whole response
	//   - Return domain.ExternalAPIError for non-success responses
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// Name returns a human-readable name for this paper source.
	// Used for logging, metrics, and display purposes.
	Name() string
}

// AuthorSource finds papers written by a named author.
type AuthorSource interface {
	// SearchByAuthor returns up to maxResults papers listing name as an
	// author, most recent first.
	SearchByAuthor(ctx context.Context, name string, maxResults int) ([]domain.Paper, error)
}
