package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/pdf"
)

type profilesResponse struct {
	researchersResponse
	ProfilesEnabled bool `json:"profiles_enabled"`
}

// enrichResearchers handles POST /api/v1/researchers/enrich.
func (s *Server) enrichResearchers(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !namesPresent(w, req.Researchers) {
		return
	}

	enriched := s.services.Enricher.Enrich(r.Context(), req.Researchers, req.Context)
	writeJSON(w, http.StatusOK, newResearchersResponse(enriched))
}

// enrichProfiles handles POST /api/v1/researchers/profiles. Without a
// citation search credential the researchers come back unchanged.
func (s *Server) enrichProfiles(w http.ResponseWriter, r *http.Request) {
	var req profilesRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !namesPresent(w, req.Researchers) {
		return
	}

	annotated := s.services.Enricher.EnrichProfiles(r.Context(), req.Researchers)
	writeJSON(w, http.StatusOK, profilesResponse{
		researchersResponse: newResearchersResponse(annotated),
		ProfilesEnabled:     s.services.Enricher.ProfilesEnabled(),
	})
}

// resolveContact handles POST /api/v1/researchers/contact. The response body
// is the contact outcome; its status picks the HTTP status code.
func (s *Server) resolveContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !namesPresent(w, []domain.Researcher{req.Researcher}) {
		return
	}

	outcome, err := s.services.Contacts.Resolve(r.Context(), req.Researcher, nil)
	if err != nil && !errors.Is(err, domain.ErrFeatureDisabled) {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, contactStatusCode(outcome.Status), outcome)
}

func contactStatusCode(status domain.ContactStatus) int {
	switch status {
	case domain.ContactStatusCompleted:
		return http.StatusOK
	case domain.ContactStatusUnavailable:
		return http.StatusServiceUnavailable
	case domain.ContactStatusTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func namesPresent(w http.ResponseWriter, researchers []domain.Researcher) bool {
	for _, r := range researchers {
		if strings.TrimSpace(r.Name) == "" {
			writeError(w, http.StatusBadRequest, "researcher name is required")
			return false
		}
	}
	return true
}

// writeDomainError maps domain errors to appropriate HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, pdf.ErrSSRF):
		writeError(w, http.StatusBadRequest, "document URL is not allowed")
	case errors.Is(err, pdf.ErrNotPDF):
		writeError(w, http.StatusUnprocessableEntity, "document is not a PDF")
	case errors.Is(err, pdf.ErrTooLarge):
		writeError(w, http.StatusUnprocessableEntity, "document is too large")
	case errors.Is(err, pdf.ErrDownloadFailed):
		writeError(w, http.StatusBadGateway, "document download failed")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrFeatureDisabled):
		writeError(w, http.StatusServiceUnavailable, "feature not configured")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, domain.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timed out")
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream service error")
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusConflict, "operation cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
