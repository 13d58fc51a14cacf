// Package domain provides the domain models of the Researcher Discovery Service:
// papers, researchers and their enrichment, contact extraction results and
// search queries.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a relative publication-date window applied to paper searches.
type Duration string

const (
	DurationOneMonth    Duration = "1month"
	DurationThreeMonths Duration = "3months"
	DurationSixMonths   Duration = "6months"
	DurationOneYear     Duration = "1year"
	DurationTwoYears    Duration = "2years"
	DurationFiveYears   Duration = "5years"
	DurationAll         Duration = "all"
)

// Durations lists every accepted duration value.
var Durations = []Duration{
	DurationOneMonth,
	DurationThreeMonths,
	DurationSixMonths,
	DurationOneYear,
	DurationTwoYears,
	DurationFiveYears,
	DurationAll,
}

// ParseDuration parses a duration value. An empty string yields DurationAll.
func ParseDuration(s string) (Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DurationAll, nil
	}
	for _, d := range Durations {
		if string(d) == s {
			return d, nil
		}
	}
	return "", NewValidationError("duration", fmt.Sprintf("unsupported value %q", s))
}

// IsValid reports whether d is a known duration.
func (d Duration) IsValid() bool {
	for _, v := range Durations {
		if v == d {
			return true
		}
	}
	return false
}

// Cutoff returns the earliest accepted publication time relative to now.
// The second return value is false when the duration imposes no cutoff.
func (d Duration) Cutoff(now time.Time) (time.Time, bool) {
	switch d {
	case DurationOneMonth:
		return now.AddDate(0, -1, 0), true
	case DurationThreeMonths:
		return now.AddDate(0, -3, 0), true
	case DurationSixMonths:
		return now.AddDate(0, -6, 0), true
	case DurationOneYear:
		return now.AddDate(-1, 0, 0), true
	case DurationTwoYears:
		return now.AddDate(-2, 0, 0), true
	case DurationFiveYears:
		return now.AddDate(-5, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// SortBy is the ordering requested from the paper repository.
type SortBy string

const (
	SortByRelevance       SortBy = "relevance"
	SortByLastUpdatedDate SortBy = "lastUpdatedDate"
	SortBySubmittedDate   SortBy = "submittedDate"
)

// SortOrder is the direction of the requested ordering.
type SortOrder string

const (
	SortOrderAscending  SortOrder = "ascending"
	SortOrderDescending SortOrder = "descending"
)

// Search limits.
const (
	DefaultMaxResults = 10
	MaxMaxResults     = 100
)

// SearchFilters narrows a paper search.
type SearchFilters struct {
	Duration   Duration  `json:"duration"`
	MaxResults int       `json:"max_results"`
	SortBy     SortBy    `json:"sort_by"`
	SortOrder  SortOrder `json:"sort_order"`
	Categories []string  `json:"categories,omitempty"`
}

// SearchQuery is a natural-language topic plus filters.
type SearchQuery struct {
	Text    string        `json:"text"`
	Filters SearchFilters `json:"filters"`
}

// WithDefaults returns a copy of q with unset filters filled in.
func (q SearchQuery) WithDefaults() SearchQuery {
	if q.Filters.Duration == "" {
		q.Filters.Duration = DurationAll
	}
	if q.Filters.MaxResults == 0 {
		q.Filters.MaxResults = DefaultMaxResults
	}
	if q.Filters.SortBy == "" {
		q.Filters.SortBy = SortByRelevance
	}
	if q.Filters.SortOrder == "" {
		q.Filters.SortOrder = SortOrderDescending
	}
	return q
}

// Validate checks that the query can be searched.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" && len(q.Filters.Categories) == 0 {
		return NewValidationError("query", "text or categories required")
	}
	if q.Filters.MaxResults < 1 || q.Filters.MaxResults > MaxMaxResults {
		return NewValidationError("max_results", fmt.Sprintf("must be between 1 and %d", MaxMaxResults))
	}
	if !q.Filters.Duration.IsValid() {
		return NewValidationError("duration", fmt.Sprintf("unsupported value %q", q.Filters.Duration))
	}
	switch q.Filters.SortBy {
	case SortByRelevance, SortByLastUpdatedDate, SortBySubmittedDate:
	default:
		return NewValidationError("sort_by", fmt.Sprintf("unsupported value %q", q.Filters.SortBy))
	}
	switch q.Filters.SortOrder {
	case SortOrderAscending, SortOrderDescending:
	default:
		return NewValidationError("sort_order", fmt.Sprintf("unsupported value %q", q.Filters.SortOrder))
	}
	return nil
}

// StructuredQuery is a repository search expression in field:value boolean
// form, e.g. `cat:cs.LG AND ti:"graph"`.
type StructuredQuery string

// String returns the expression.
func (q StructuredQuery) String() string {
	return string(q)
}

// IsEmpty reports whether the expression is blank.
func (q StructuredQuery) IsEmpty() bool {
	return strings.TrimSpace(string(q)) == ""
}
