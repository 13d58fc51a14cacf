package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/observability"
)

// searchPapers handles POST /api/v1/papers/search.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.services.Search.Search(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Papers:          result.Papers,
		StructuredQuery: result.Query,
		Strategy:        result.Strategy,
		Cutoff:          result.Cutoff,
		Total:           len(result.Papers),
	})
}

// extractResearchers handles POST /api/v1/researchers/extract.
func (s *Server) extractResearchers(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ex, err := s.services.Extractor.Extract(r.Context(), strings.TrimSpace(req.PDFURL))
	if err != nil {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Warn().Err(err).Msg("extraction failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Title:       ex.Title,
		Researchers: nonNil(ex.Researchers),
		Emails:      nonNil(ex.Emails),
		ORCIDs:      nonNil(ex.ORCIDs),
		URLs:        nonNil(ex.URLs),
		SourceURL:   ex.SourceURL,
	})
}

// discover handles POST /api/v1/discover.
func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	report, err := s.services.Discovery.Discover(r.Context(), req.toDomain(), req.MaxPapers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// lookupAuthor handles GET /api/v1/authors?name=&max_results=.
func (s *Server) lookupAuthor(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(name) > 200 {
		writeError(w, http.StatusBadRequest, "name must be at most 200 characters")
		return
	}

	maxResults := 0
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		maxResults = parsed
	}

	researchers, err := s.services.Discovery.LookupAuthor(r.Context(), name, maxResults)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResearchersResponse(researchers))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
