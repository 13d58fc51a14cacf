package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// Request types. Validation tags are checked by decodeAndValidate; domain
// rules (such as text-or-categories) are checked again by the services.

type searchRequest struct {
	Query      string   `json:"query" validate:"max=1000"`
	Duration   string   `json:"duration" validate:"omitempty,oneof=1month 3months 6months 1year 2years 5years all"`
	MaxResults int      `json:"max_results" validate:"omitempty,min=1,max=100"`
	SortBy     string   `json:"sort_by" validate:"omitempty,oneof=relevance lastUpdatedDate submittedDate"`
	SortOrder  string   `json:"sort_order" validate:"omitempty,oneof=ascending descending"`
	Categories []string `json:"categories" validate:"max=20,dive,required,max=32"`
}

func (r searchRequest) toDomain() domain.SearchQuery {
	return domain.SearchQuery{
		Text: strings.TrimSpace(r.Query),
		Filters: domain.SearchFilters{
			Duration:   domain.Duration(r.Duration),
			MaxResults: r.MaxResults,
			SortBy:     domain.SortBy(r.SortBy),
			SortOrder:  domain.SortOrder(r.SortOrder),
			Categories: r.Categories,
		},
	}
}

type discoverRequest struct {
	searchRequest
	MaxPapers int `json:"max_papers" validate:"omitempty,min=1,max=10"`
}

type extractRequest struct {
	PDFURL string `json:"pdf_url" validate:"required,max=2048"`
}

type enrichRequest struct {
	Researchers []domain.Researcher `json:"researchers" validate:"required,min=1,max=50,dive"`
	Context     string              `json:"context" validate:"max=5000"`
}

type profilesRequest struct {
	Researchers []domain.Researcher `json:"researchers" validate:"required,min=1,max=50,dive"`
}

type contactRequest struct {
	Researcher domain.Researcher `json:"researcher"`
}

// Response types.

type errorBody struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Papers          []domain.Paper         `json:"papers"`
	StructuredQuery domain.StructuredQuery `json:"structured_query"`
	Strategy        string                 `json:"strategy"`
	Cutoff          *time.Time             `json:"cutoff,omitempty"`
	Total           int                    `json:"total"`
}

type extractResponse struct {
	Title       string              `json:"title"`
	Researchers []domain.Researcher `json:"researchers"`
	Emails      []string            `json:"emails"`
	ORCIDs      []string            `json:"orcids"`
	URLs        []string            `json:"urls"`
	SourceURL   string              `json:"source_url"`
}

type researchersResponse struct {
	Researchers []domain.Researcher `json:"researchers"`
	Total       int                 `json:"total"`
}

func newResearchersResponse(researchers []domain.Researcher) researchersResponse {
	if researchers == nil {
		researchers = []domain.Researcher{}
	}
	return researchersResponse{Researchers: researchers, Total: len(researchers)}
}

// newValidator returns a validator reporting JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a size-limited JSON body into dst and validates it.
// On failure it writes a 400 response and returns false.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) > maxRequestBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders the first validation failure without echoing
// the offending value.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
