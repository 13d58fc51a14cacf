// Package extract pulls probable author names, contact details and profile
// links out of the first few kilobytes of a research paper PDF.
//
// Extraction is heuristic pattern matching over the decoded prefix; the
// document body is never parsed. Names and contact details are matched up
// by position, which is a best-effort association: when the lists differ in
// length or order a contact may be attributed to the wrong author.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/observability"
	"github.com/helixir/researcher-discovery-service/internal/pdf"
)

// Extraction defaults and hard limits.
const (
	DefaultPrefixBytes = 8000
	MaxResearchers     = 10
	NameLineLimit      = 30
	InstitutionLimit   = 35
	minTitleLength     = 20
	maxTitleLength     = 300
	maxInstitutionLen  = 200
)

// Extraction outcomes recorded in metrics.
const (
	outcomeSuccess     = "success"
	outcomeInvalidURL  = "invalid_url"
	outcomeFetchFailed = "fetch_failed"
)

// Fetcher downloads a document.
type Fetcher interface {
	Download(ctx context.Context, url string) (*pdf.DownloadResult, error)
}

// Config holds Extractor configuration.
type Config struct {
	// PrefixBytes is how much of the document is decoded. Default 8000.
	PrefixBytes int
}

// Extraction is everything found in a document prefix.
type Extraction struct {
	Title       string              `json:"title"`
	Researchers []domain.Researcher `json:"researchers"`
	Emails      []string            `json:"emails"`
	ORCIDs      []string            `json:"orcids"`
	URLs        []string            `json:"urls"`
	SourceURL   string              `json:"source_url,omitempty"`
}

// Extractor downloads documents and extracts researchers from them.
type Extractor struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates an Extractor.
func New(fetcher Fetcher, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Extractor {
	if cfg.PrefixBytes <= 0 {
		cfg.PrefixBytes = DefaultPrefixBytes
	}
	return &Extractor{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With().Str("component", "extractor").Logger(),
		metrics: metrics,
	}
}

// Extract validates rawURL, downloads the document and runs the heuristics
// over its prefix. Invalid URLs return a domain validation error; download
// failures are returned wrapped and are the only other error.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Extraction, error) {
	docURL, err := pdf.ValidateURL(rawURL)
	if err != nil {
		e.metrics.RecordExtraction(outcomeInvalidURL, 0)
		return nil, err
	}

	doc, err := e.fetcher.Download(ctx, docURL)
	if err != nil {
		e.metrics.RecordExtraction(outcomeFetchFailed, 0)
		return nil, fmt.Errorf("fetching %s: %w", docURL, err)
	}

	text := DecodePrefix(doc.Content, e.config.PrefixBytes)
	result := ExtractText(text)
	result.SourceURL = docURL

	e.logger.Info().
		Str("url", docURL).
		Str("content_hash", doc.ContentHash).
		Int64("size_bytes", doc.SizeBytes).
		Int("researchers", len(result.Researchers)).
		Int("emails", len(result.Emails)).
		Msg("document extracted")

	e.metrics.RecordExtraction(outcomeSuccess, len(result.Researchers))
	return result, nil
}

// ExtractText runs the heuristics over already decoded text.
func ExtractText(text string) *Extraction {
	lines := strings.Split(text, "\n")

	title, titleIdx := guessTitle(lines)
	names := findNames(lines, titleIdx)
	institutions := findInstitutions(lines)

	emails := uniqueMatches(emailRe, text, strings.ToLower)
	orcids := uniqueMatches(orcidRe, text, nil)
	urls := uniqueMatches(urlRe, text, trimURL)
	linkedIn := uniqueMatches(linkedInRe, text, normalizeProfileURL)
	scholar := uniqueMatches(scholarRe, text, normalizeProfileURL)
	researchGate := uniqueMatches(researchGateRe, text, normalizeProfileURL)

	researchers := make([]domain.Researcher, 0, len(names))
	for i, name := range names {
		r := domain.Researcher{Name: name}
		r.Email = at(emails, i)
		r.ORCID = at(orcids, i)
		r.LinkedIn = at(linkedIn, i)
		r.GoogleScholar = at(scholar, i)
		r.ResearchGate = at(researchGate, i)

		switch {
		case i < len(institutions):
			r.Institution = institutions[i]
		case len(institutions) == 1:
			r.Institution = institutions[0]
		}
		researchers = append(researchers, r)
	}

	return &Extraction{
		Title:       title,
		Researchers: researchers,
		Emails:      emails,
		ORCIDs:      orcids,
		URLs:        urls,
	}
}

// guessTitle returns the first line of at least 20 characters that does not
// look like metadata, and its index (-1 when none).
func guessTitle(lines []string) (string, int) {
	for i, line := range lines {
		if i >= InstitutionLimit {
			break
		}
		line = collapseSpaces(line)
		if len(line) < minTitleLength || len(line) > maxTitleLength {
			continue
		}
		if isMetadataLine(line) {
			continue
		}
		return line, i
	}
	return "", -1
}

func isMetadataLine(line string) bool {
	lower := strings.ToLower(line)
	for _, reject := range titleRejects {
		if strings.Contains(lower, reject) {
			return true
		}
	}
	if digitsOnlyRe.MatchString(line) {
		return true
	}
	letters := 0
	for _, r := range line {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			letters++
		}
	}
	// Binary noise decoded as Latin-1 is mostly symbols.
	return letters*2 < len([]rune(line))
}

// findNames scans the first NameLineLimit lines for name-shaped sequences.
// A line mentioning authors, affiliations or departments switches on the
// author-section flag, which additionally admits three-word names. Names are
// unique in first-seen order and capped at MaxResearchers.
func findNames(lines []string, titleIdx int) []string {
	var (
		names         []string
		seen          = make(map[string]bool)
		authorSection bool
	)

	for i, line := range lines {
		if i >= NameLineLimit || len(names) >= MaxResearchers {
			break
		}
		if i == titleIdx {
			continue
		}

		lower := strings.ToLower(line)
		for _, kw := range authorSectionKeywords {
			if strings.Contains(lower, kw) {
				authorSection = true
				break
			}
		}

		// Affiliation lines name places, not people.
		if isInstitutionLine(line) {
			continue
		}

		var candidates []string
		if authorSection {
			candidates = append(candidates, nameThreeRe.FindAllString(line, -1)...)
		}
		candidates = append(candidates, nameTwoRe.FindAllString(line, -1)...)

		for _, c := range candidates {
			c = collapseSpaces(c)
			if isStopName(c) || seen[c] || coveredBy(c, names) {
				continue
			}
			seen[c] = true
			names = append(names, c)
			if len(names) >= MaxResearchers {
				break
			}
		}
	}
	return names
}

// coveredBy reports whether candidate is a fragment of an accepted name, as
// happens when the two-word pattern matches inside a three-word name.
func coveredBy(candidate string, names []string) bool {
	for _, n := range names {
		if strings.Contains(n, candidate) {
			return true
		}
	}
	return false
}

// findInstitutions returns unique affiliation lines within the first
// InstitutionLimit lines.
func findInstitutions(lines []string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for i, line := range lines {
		if i >= InstitutionLimit {
			break
		}
		if !isInstitutionLine(line) {
			continue
		}
		inst := cleanInstitution(line)
		if inst != "" && !seen[inst] {
			seen[inst] = true
			out = append(out, inst)
		}
	}
	return out
}

func isInstitutionLine(line string) bool {
	for _, kw := range institutionKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// cleanInstitution strips affiliation markers, emails and excess length.
func cleanInstitution(line string) string {
	line = emailRe.ReplaceAllString(line, "")
	line = collapseSpaces(line)
	line = strings.TrimLeft(line, "0123456789*†‡§¶#,;:. ")
	line = strings.TrimRight(line, ",;: ")
	return Clip(line, maxInstitutionLen)
}

// uniqueMatches returns de-duplicated matches of re in first-seen order,
// passed through normalize when set.
func uniqueMatches(re *regexp.Regexp, text string, normalize func(string) string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, m := range re.FindAllString(text, -1) {
		if normalize != nil {
			m = normalize(m)
		}
		key := strings.ToLower(m)
		if m == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// normalizeProfileURL trims punctuation and adds a scheme.
func normalizeProfileURL(u string) string {
	u = trimURL(u)
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	return u
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
