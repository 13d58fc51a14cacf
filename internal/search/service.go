// Package search runs paper searches through an explicit fallback ladder.
//
// Each rung of the ladder builds a structured query from the request. Rungs
// are tried in order and the first one returning at least one paper after
// client-side filtering wins, so an overly specific AI translation never
// ends in an empty result while a broader query could still find papers.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
	"github.com/helixir/researcher-discovery-service/internal/query"
)

// Strategy names.
const (
	StrategyTranslated      = "translated"
	StrategySimplified      = "simplified"
	StrategyDefaultCategory = "default_category"
)

// Attempt outcomes recorded per rung.
const (
	outcomeResults = "results"
	outcomeEmpty   = "empty"
	outcomeError   = "error"
	outcomeSkipped = "skipped"
)

// QueryTranslator produces the primary structured query.
type QueryTranslator interface {
	Translate(ctx context.Context, q domain.SearchQuery) domain.StructuredQuery
}

// Strategy is one rung of the fallback ladder. Build returns an empty query
// when the rung does not apply to the request.
type Strategy struct {
	Name  string
	Build func(ctx context.Context, q domain.SearchQuery) domain.StructuredQuery
}

// DefaultLadder returns translated, simplified and default category rungs.
func DefaultLadder(translator QueryTranslator) []Strategy {
	return []Strategy{
		{
			Name:  StrategyTranslated,
			Build: translator.Translate,
		},
		{
			Name: StrategySimplified,
			Build: func(_ context.Context, q domain.SearchQuery) domain.StructuredQuery {
				simplified := query.Simplify(q.Text)
				if simplified.IsEmpty() {
					return ""
				}
				return query.WithCategories(simplified, q.Filters.Categories)
			},
		},
		{
			Name: StrategyDefaultCategory,
			Build: func(_ context.Context, q domain.SearchQuery) domain.StructuredQuery {
				// The category filter would drop every paper this rung can return.
				if !(domain.Paper{Categories: query.DefaultCategories}).HasCategory(q.Filters.Categories) {
					return ""
				}
				return query.DefaultCategoryQuery
			},
		},
	}
}

// Attempt describes one rung that was tried.
type Attempt struct {
	Strategy string                 `json:"strategy"`
	Query    domain.StructuredQuery `json:"query"`
	Papers   int                    `json:"papers"`
	Error    string                 `json:"error,omitempty"`
}

// Result is the outcome of a laddered search.
type Result struct {
	// Papers in source ranking order. Never nil.
	Papers []domain.Paper `json:"papers"`

	// Query is the structured query that produced Papers, or the last query
	// tried when every rung came back empty.
	Query domain.StructuredQuery `json:"structured_query"`

	// Strategy names the winning rung. Empty when nothing was found.
	Strategy string `json:"strategy"`

	// Cutoff is the earliest accepted publication time, nil for "all".
	Cutoff *time.Time `json:"cutoff,omitempty"`

	// Attempts lists the rungs tried, in order.
	Attempts []Attempt `json:"attempts"`
}

// Service searches a paper source through a fallback ladder.
type Service struct {
	source  papersources.PaperSource
	ladder  []Strategy
	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates a Service using DefaultLadder.
func NewService(source papersources.PaperSource, translator QueryTranslator, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return NewServiceWithLadder(source, DefaultLadder(translator), logger, metrics)
}

// NewServiceWithLadder creates a Service with a custom ladder.
func NewServiceWithLadder(source papersources.PaperSource, ladder []Strategy, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:  source,
		ladder:  ladder,
		logger:  logger.With().Str("component", "paper_search").Logger(),
		metrics: metrics,
		now:     time.Now,
	}
}

// Search validates q and walks the ladder. Upstream failures count as empty
// rungs; only invalid input and context cancellation return an error. When
// every rung is empty the result holds no papers and no error.
func (s *Service) Search(ctx context.Context, q domain.SearchQuery) (*Result, error) {
	q = q.WithDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	result := &Result{Papers: []domain.Paper{}}

	params := papersources.SearchParams{
		MaxResults: q.Filters.MaxResults,
		SortBy:     q.Filters.SortBy,
		SortOrder:  q.Filters.SortOrder,
		Categories: q.Filters.Categories,
	}
	if cutoff, ok := q.Filters.Duration.Cutoff(start); ok {
		params.DateFrom = &cutoff
		result.Cutoff = &cutoff
	}

	tried := make(map[domain.StructuredQuery]bool, len(s.ladder))
	for _, strategy := range s.ladder {
		structured := strategy.Build(ctx, q)
		if structured.IsEmpty() || tried[structured] {
			s.metrics.RecordSearchAttempt(strategy.Name, outcomeSkipped)
			continue
		}
		tried[structured] = true

		log := observability.WithSearchContext(s.logger, q.Text, strategy.Name)
		params.Query = structured
		result.Query = structured

		attempt := Attempt{Strategy: strategy.Name, Query: structured}
		res, err := s.source.Search(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("searching papers: %w", ctx.Err())
			}
			log.Warn().Err(err).Str("structured_query", structured.String()).
				Msg("paper search failed, trying next strategy")
			attempt.Error = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			s.metrics.RecordSearchAttempt(strategy.Name, outcomeError)
			continue
		}

		attempt.Papers = len(res.Papers)
		result.Attempts = append(result.Attempts, attempt)

		if len(res.Papers) == 0 {
			log.Info().Str("structured_query", structured.String()).
				Int("skipped", res.Skipped).
				Int("filtered", res.Filtered).
				Msg("no papers for strategy, trying next")
			s.metrics.RecordSearchAttempt(strategy.Name, outcomeEmpty)
			continue
		}

		s.metrics.RecordSearchAttempt(strategy.Name, outcomeResults)
		result.Papers = res.Papers
		result.Strategy = strategy.Name

		log.Info().Str("structured_query", structured.String()).
			Int("papers", len(res.Papers)).
			Msg("paper search completed")
		break
	}

	if result.Strategy == "" {
		s.logger.Info().Str("query", q.Text).Int("attempts", len(result.Attempts)).
			Msg("every search strategy returned no papers")
	}

	s.metrics.RecordSearch(result.Strategy, len(result.Papers), s.now().Sub(start).Seconds())
	return result, nil
}
