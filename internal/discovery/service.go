// Package discovery runs the researcher discovery pipeline: search papers,
// extract authors from their PDFs, merge duplicates and enrich the result.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/researcher-discovery-service/internal/dedup"
	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/enrich"
	"github.com/helixir/researcher-discovery-service/internal/extract"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/search"
)

const (
	// DefaultMaxPapers is how many papers have their PDFs extracted.
	DefaultMaxPapers = 3

	// MaxPapersLimit caps MaxPapers per request.
	MaxPapersLimit = 10

	// DefaultExtractConcurrency bounds parallel PDF extractions.
	DefaultExtractConcurrency = 3

	// DefaultAuthorResults is the author lookup result cap.
	DefaultAuthorResults = 20

	// MaxAuthorResults caps author lookups.
	MaxAuthorResults = 100

	maxContextLength = 2000
)

// PaperSearcher finds papers for a query.
type PaperSearcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (*search.Result, error)
}

// DocumentExtractor extracts researchers from a PDF.
type DocumentExtractor interface {
	Extract(ctx context.Context, url string) (*extract.Extraction, error)
}

// Enricher enriches a batch of researchers.
type Enricher interface {
	Enrich(ctx context.Context, researchers []domain.Researcher, contextText string) []domain.Researcher
}

// Config holds Service configuration.
type Config struct {
	// MaxPapers is the default number of papers extracted per run.
	MaxPapers int

	// ExtractConcurrency bounds parallel extractions.
	ExtractConcurrency int
}

func (c *Config) applyDefaults() {
	if c.MaxPapers <= 0 {
		c.MaxPapers = DefaultMaxPapers
	}
	if c.MaxPapers > MaxPapersLimit {
		c.MaxPapers = MaxPapersLimit
	}
	if c.ExtractConcurrency <= 0 {
		c.ExtractConcurrency = DefaultExtractConcurrency
	}
}

// Report is the result of a discovery run.
type Report struct {
	RunID       string                 `json:"run_id"`
	Query       domain.StructuredQuery `json:"structured_query"`
	Strategy    string                 `json:"strategy"`
	Cutoff      *time.Time             `json:"cutoff,omitempty"`
	Papers      []domain.Paper         `json:"papers"`
	Researchers []domain.Researcher    `json:"researchers"`
	Extracted   int                    `json:"documents_extracted"`
	Failed      int                    `json:"documents_failed"`
}

// Service wires the pipeline stages together.
type Service struct {
	search   PaperSearcher
	extract  DocumentExtractor
	enricher Enricher
	authors  enrich.AuthorSearcher
	config   Config
	logger   zerolog.Logger
}

// NewService creates a Service.
func NewService(searcher PaperSearcher, extractor DocumentExtractor, enricher Enricher, authors enrich.AuthorSearcher, cfg Config, logger zerolog.Logger) *Service {
	cfg.applyDefaults()
	return &Service{
		search:   searcher,
		extract:  extractor,
		enricher: enricher,
		authors:  authors,
		config:   cfg,
		logger:   logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover runs the full pipeline for q, extracting up to maxPapers PDFs
// (zero means the configured default). Only invalid input and a cancelled
// context are errors; failed extractions fall back to the paper's author
// list.
func (s *Service) Discover(ctx context.Context, q domain.SearchQuery, maxPapers int) (*Report, error) {
	switch {
	case maxPapers == 0:
		maxPapers = s.config.MaxPapers
	case maxPapers < 0 || maxPapers > MaxPapersLimit:
		return nil, domain.NewValidationError("max_papers", fmt.Sprintf("must be between 1 and %d", MaxPapersLimit))
	}

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	logger := observability.LoggerFromContext(ctx, s.logger)

	result, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    runID,
		Query:    result.Query,
		Strategy: result.Strategy,
		Cutoff:   result.Cutoff,
		Papers:   result.Papers,
	}

	papers := result.Papers
	if len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	perPaper := make([][]domain.Researcher, len(papers))
	failed := make([]bool, len(papers))

	var g errgroup.Group
	g.SetLimit(s.config.ExtractConcurrency)
	for i, paper := range papers {
		g.Go(func() error {
			found, err := s.researchersOf(ctx, paper)
			if err != nil {
				failed[i] = true
				logger.Warn().Err(err).Str("paper_id", paper.ID).Msg("extraction failed, using listed authors")
			}
			perPaper[i] = found
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var researchers []domain.Researcher
	for i := range papers {
		if failed[i] {
			report.Failed++
		} else {
			report.Extracted++
		}
		researchers = append(researchers, perPaper[i]...)
	}

	merged := dedup.Merge(researchers)
	report.Researchers = s.enricher.Enrich(ctx, merged, contextText(q.Text, papers))
	if report.Researchers == nil {
		report.Researchers = []domain.Researcher{}
	}

	logger.Info().
		Str("strategy", report.Strategy).
		Int("papers", len(report.Papers)).
		Int("extracted", report.Extracted).
		Int("failed", report.Failed).
		Int("researchers", len(report.Researchers)).
		Msg("discovery run complete")
	return report, nil
}

// researchersOf extracts researchers from the paper's PDF, seeding each with
// the paper title. When extraction fails or finds no names, the paper's own
// author list is used instead, together with any extraction error.
func (s *Service) researchersOf(ctx context.Context, paper domain.Paper) ([]domain.Researcher, error) {
	var (
		found []domain.Researcher
		err   error
	)
	if paper.PDFLink != "" {
		var ex *extract.Extraction
		ex, err = s.extract.Extract(ctx, paper.PDFLink)
		if err == nil {
			found = ex.Researchers
		}
	} else {
		err = fmt.Errorf("paper %s has no pdf link", paper.ID)
	}

	if len(found) == 0 {
		found = ListedAuthors(paper)
	}
	for i := range found {
		found[i].AddPapers(paper.Title)
	}
	return found, err
}

// ListedAuthors turns a paper's author list into researchers, carrying any
// affiliation or email the feed reported.
func ListedAuthors(paper domain.Paper) []domain.Researcher {
	out := make([]domain.Researcher, 0, len(paper.Authors))
	for _, name := range paper.Authors {
		r := domain.Researcher{Name: name}
		if detail, ok := paper.DetailOf(name); ok {
			r.Institution = detail.Affiliation
			r.Email = detail.Email
		}
		out = append(out, r)
	}
	return out
}

func contextText(query string, papers []domain.Paper) string {
	parts := []string{strings.TrimSpace(query)}
	for _, p := range papers {
		parts = append(parts, p.Title)
	}
	if len(papers) > 0 {
		parts = append(parts, papers[0].Abstract)
	}
	return extract.Clip(strings.TrimSpace(strings.Join(parts, ". ")), maxContextLength)
}

// LookupAuthor searches arXiv for papers by name and returns one researcher
// per distinct matching author name, with the papers they appear on.
func (s *Service) LookupAuthor(ctx context.Context, name string, maxResults int) ([]domain.Researcher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "author name is required")
	}
	switch {
	case maxResults == 0:
		maxResults = DefaultAuthorResults
	case maxResults < 0 || maxResults > MaxAuthorResults:
		return nil, domain.NewValidationError("max_results", fmt.Sprintf("must be between 1 and %d", MaxAuthorResults))
	}

	papers, err := s.authors.SearchByAuthor(ctx, name, maxResults)
	if err != nil {
		return nil, fmt.Errorf("author search: %w", err)
	}

	var researchers []domain.Researcher
	index := make(map[string]int)
	for _, paper := range papers {
		for _, author := range paper.Authors {
			if !dedup.SamePerson(name, author) {
				continue
			}
			key := dedup.NormalizeName(author)
			i, ok := index[key]
			if !ok {
				researchers = append(researchers, domain.Researcher{Name: author})
				i = len(researchers) - 1
				index[key] = i
			}
			r := &researchers[i]
			if detail, ok := paper.DetailOf(author); ok {
				if r.Institution == "" {
					r.Institution = detail.Affiliation
				}
				if r.Email == "" {
					r.Email = detail.Email
				}
			}
			r.AddPapers(paper.Title)
			r.PaperCount++
		}
	}

	enrich.SortByPaperCount(researchers)
	if researchers == nil {
		researchers = []domain.Researcher{}
	}
	return researchers, nil
}
