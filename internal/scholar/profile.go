package scholar

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/helixir/researcher-discovery-service/internal/dedup"
	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/extract"
)

const (
	// DefaultMaxRecentPapers caps RecentPapers.
	DefaultMaxRecentPapers = 5

	maxInterests     = 5
	minInterestCount = 2
)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// interestStopWords are title words too generic to describe research interests.
var interestStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "is": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "with": true, "via": true, "using": true, "towards": true,
	"toward": true, "based": true, "new": true, "approach": true, "method": true, "methods": true,
	"study": true, "analysis": true, "survey": true, "review": true, "model": true, "models": true,
	"its": true, "their": true, "we": true, "our": true, "how": true, "what": true, "when": true,
	"beyond": true, "through": true, "under": true, "over": true, "between": true, "can": true,
}

// BuildProfile aggregates organic results into a citation profile for name.
// It returns false when there are no results.
func BuildProfile(name string, resp *SearchResponse, maxRecent int) (*domain.EnrichmentProfile, bool) {
	if resp == nil || len(resp.OrganicResults) == 0 {
		return nil, false
	}
	if maxRecent <= 0 {
		maxRecent = DefaultMaxRecentPapers
	}

	profile := &domain.EnrichmentProfile{Title: name}
	papers := make([]domain.ProfilePaper, 0, len(resp.OrganicResults))
	titles := make([]string, 0, len(resp.OrganicResults))

	for _, r := range resp.OrganicResults {
		title := extract.StripHTML(r.Title)
		titles = append(titles, title)

		paper := domain.ProfilePaper{Title: title, Link: r.Link}
		if year, ok := parseYear(r.PublicationInfo.Summary); ok {
			paper.Year = &year
		}
		if r.InlineLinks.CitedBy != nil {
			cites := r.InlineLinks.CitedBy.Total
			paper.Citations = &cites
			profile.TotalCitations += cites
		}
		papers = append(papers, paper)

		if profile.Affiliation == "" {
			profile.Affiliation = venue(r.PublicationInfo.Summary)
		}
		if profile.ProfileLink == "" {
			if ref, ok := matchAuthor(name, r.PublicationInfo.Authors); ok {
				profile.ProfileLink = ref.Link
				profile.Title = ref.Name
			}
		}
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return yearOf(papers[i]) > yearOf(papers[j])
	})
	if len(papers) > maxRecent {
		papers = papers[:maxRecent]
	}
	profile.RecentPapers = papers
	profile.Interests = Interests(titles, maxInterests)
	return profile, true
}

// parseYear returns the last four-digit year in a byline.
func parseYear(summary string) (int, bool) {
	matches := yearRe.FindAllString(summary, -1)
	if len(matches) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0, false
	}
	return year, true
}

func yearOf(p domain.ProfilePaper) int {
	if p.Year == nil {
		return 0
	}
	return *p.Year
}

// venue extracts the middle section of a "Authors - Venue, 2021 - host"
// byline without the trailing year.
func venue(summary string) string {
	parts := strings.Split(summary, " - ")
	if len(parts) < 2 {
		return ""
	}
	v := strings.TrimSpace(parts[1])
	v = strings.TrimSpace(yearRe.ReplaceAllString(v, ""))
	return strings.Trim(v, ",… ")
}

// matchAuthor finds the byline author that is the same person as name and
// has a profile link.
func matchAuthor(name string, refs []AuthorRef) (AuthorRef, bool) {
	for _, ref := range refs {
		if ref.Link != "" && dedup.SamePerson(name, ref.Name) {
			return ref, true
		}
	}
	return AuthorRef{}, false
}

// Interests returns up to limit title terms occurring in at least two titles,
// most frequent first with ties broken alphabetically.
func Interests(titles []string, limit int) []string {
	counts := make(map[string]int)
	for _, title := range titles {
		seen := make(map[string]bool)
		for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
		}) {
			w = strings.Trim(w, "-")
			if len(w) < 3 || interestStopWords[w] || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}

	terms := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= minInterestCount {
			terms = append(terms, w)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
