// Package enrich augments extracted researchers with data from arXiv, an LLM
// and Google Scholar.
//
// Every stage is best effort. A failing stage is logged and counted, and the
// researcher keeps whatever fields earlier stages filled in. The batch output
// always has one record per input, ordered by paper count with input order
// kept for ties.
package enrich

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/llm"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/scholar"
)

const (
	// DefaultConcurrency bounds the researchers enriched in parallel.
	DefaultConcurrency = 4

	// DefaultMaxRecentPapers caps the titles merged from the author search.
	DefaultMaxRecentPapers = 5

	// DefaultAuthorMaxResults is the result cap of the author search used
	// to derive the paper count.
	DefaultAuthorMaxResults = 50

	// DefaultLLMTimeout bounds each LLM call.
	DefaultLLMTimeout = 20 * time.Second
)

// Stage names used in logs and the enrichment failure metric.
const (
	StageAuthorSearch  = "author_search"
	StageScholarLink   = "scholar_link"
	StageResearchAreas = "research_areas"
	StageProfile       = "profile"
)

// AuthorSearcher finds papers by author name.
type AuthorSearcher interface {
	SearchByAuthor(ctx context.Context, name string, maxResults int) ([]domain.Paper, error)
}

// ProfileSearcher looks an author up in the citation search engine.
type ProfileSearcher interface {
	Enabled() bool
	SearchAuthor(ctx context.Context, name string) (*scholar.SearchResponse, error)
}

// Config holds Enricher configuration.
type Config struct {
	// Concurrency bounds parallel per-researcher work.
	Concurrency int

	// MaxRecentPapers caps merged recent titles and profile papers.
	MaxRecentPapers int

	// AuthorMaxResults is the author search result cap.
	AuthorMaxResults int

	// LLMTimeout bounds each LLM call.
	LLMTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxRecentPapers <= 0 {
		c.MaxRecentPapers = DefaultMaxRecentPapers
	}
	if c.AuthorMaxResults <= 0 {
		c.AuthorMaxResults = DefaultAuthorMaxResults
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = DefaultLLMTimeout
	}
}

// Enricher runs the batch and citation-profile enrichment paths.
type Enricher struct {
	authors   AuthorSearcher
	completer llm.Completer
	profiles  ProfileSearcher
	config    Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// New creates an Enricher. A nil completer disables the AI stages and a nil
// or disabled profiles searcher disables the citation-profile path.
func New(authors AuthorSearcher, completer llm.Completer, profiles ProfileSearcher, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	cfg.applyDefaults()
	return &Enricher{
		authors:   authors,
		completer: completer,
		profiles:  profiles,
		config:    cfg,
		logger:    logger.With().Str("component", "enricher").Logger(),
		metrics:   metrics,
	}
}

// ProfilesEnabled reports whether the citation-profile path is available.
func (e *Enricher) ProfilesEnabled() bool {
	return e.profiles != nil && e.profiles.Enabled()
}

// Enrich runs the author search, Scholar link and research area stages for
// every researcher. contextText is the paper title or abstract the
// researchers were found through. The input slice is not modified.
func (e *Enricher) Enrich(ctx context.Context, researchers []domain.Researcher, contextText string) []domain.Researcher {
	start := time.Now()
	out := make([]domain.Researcher, len(researchers))

	var g errgroup.Group
	g.SetLimit(e.config.Concurrency)
	for i := range researchers {
		r := clone(researchers[i])
		g.Go(func() error {
			e.enrichOne(ctx, &r, contextText)
			out[i] = r
			return nil
		})
	}
	_ = g.Wait()

	SortByPaperCount(out)
	e.metrics.RecordEnrichment(time.Since(start).Seconds())
	e.logger.Debug().
		Int("researchers", len(out)).
		Dur("duration", time.Since(start)).
		Msg("enrichment complete")
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, r *domain.Researcher, contextText string) {
	logger := observability.WithResearcherContext(e.logger, r.Name, r.Institution)

	if e.authors != nil {
		if err := e.addAuthorPapers(ctx, r); err != nil {
			e.stageFailed(logger, StageAuthorSearch, err)
		}
	}

	if r.GoogleScholar == "" && e.completer != nil {
		link, err := e.suggestScholarLink(ctx, *r)
		if err != nil {
			e.stageFailed(logger, StageScholarLink, err)
		} else if link != "" {
			r.GoogleScholar = link
		}
	}

	if err := e.addResearchAreas(ctx, r, contextText); err != nil {
		e.stageFailed(logger, StageResearchAreas, err)
		r.AddResearchAreas(KeywordAreas(contextText, maxFallbackAreas)...)
	}
}

func (e *Enricher) addAuthorPapers(ctx context.Context, r *domain.Researcher) error {
	papers, err := e.authors.SearchByAuthor(ctx, r.Name, e.config.AuthorMaxResults)
	if err != nil {
		return err
	}
	if len(papers) > r.PaperCount {
		r.PaperCount = len(papers)
	}
	for i := 0; i < len(papers) && i < e.config.MaxRecentPapers; i++ {
		r.AddPapers(papers[i].Title)
	}
	return nil
}

func (e *Enricher) stageFailed(logger zerolog.Logger, stage string, err error) {
	e.metrics.RecordEnrichmentFailure(stage)
	logger.Warn().Err(err).Str("stage", stage).Msg("enrichment stage failed")
}

// EnrichProfiles attaches a citation profile to each researcher found in the
// citation search engine. Researchers without results, or whose lookup
// failed, are returned unchanged. When the path is disabled the input is
// returned as is.
func (e *Enricher) EnrichProfiles(ctx context.Context, researchers []domain.Researcher) []domain.Researcher {
	if !e.ProfilesEnabled() {
		return researchers
	}

	out := make([]domain.Researcher, len(researchers))
	var g errgroup.Group
	g.SetLimit(e.config.Concurrency)
	for i := range researchers {
		r := clone(researchers[i])
		g.Go(func() error {
			e.lookupProfile(ctx, &r)
			out[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) lookupProfile(ctx context.Context, r *domain.Researcher) {
	logger := observability.WithResearcherContext(e.logger, r.Name, r.Institution)

	resp, err := e.profiles.SearchAuthor(ctx, r.Name)
	if err != nil {
		e.metrics.RecordProfileLookup("failed")
		e.stageFailed(logger, StageProfile, err)
		return
	}

	profile, ok := scholar.BuildProfile(r.Name, resp, e.config.MaxRecentPapers)
	if !ok {
		e.metrics.RecordProfileLookup("empty")
		logger.Debug().Msg("no citation profile results")
		return
	}

	e.metrics.RecordProfileLookup("found")
	r.Profile = profile
	if r.GoogleScholar == "" && IsScholarProfileURL(profile.ProfileLink) {
		r.GoogleScholar = profile.ProfileLink
	}
}

// SortByPaperCount orders researchers by descending paper count, keeping the
// existing order for equal counts.
func SortByPaperCount(researchers []domain.Researcher) {
	sort.SliceStable(researchers, func(i, j int) bool {
		return researchers[i].PaperCount > researchers[j].PaperCount
	})
}

// clone copies r so additive updates never write into the caller's slices.
func clone(r domain.Researcher) domain.Researcher {
	r.ResearchAreas = slices.Clone(r.ResearchAreas)
	r.Papers = slices.Clone(r.Papers)
	r.AdditionalContacts = slices.Clone(r.AdditionalContacts)
	if r.Profile != nil {
		p := *r.Profile
		r.Profile = &p
	}
	return r
}
