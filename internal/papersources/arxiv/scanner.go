package arxiv

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// The Atom feed is scanned with patterns instead of a full XML decoder so
// that one broken entry does not discard the whole response.
var (
	entryRe       = regexp.MustCompile(`(?s)<entry\b[^>]*>(.*?)</entry>`)
	idRe          = regexp.MustCompile(`(?s)<id>(.*?)</id>`)
	titleRe       = regexp.MustCompile(`(?s)<title\b[^>]*>(.*?)</title>`)
	summaryRe     = regexp.MustCompile(`(?s)<summary\b[^>]*>(.*?)</summary>`)
	publishedRe   = regexp.MustCompile(`(?s)<published>(.*?)</published>`)
	updatedRe     = regexp.MustCompile(`(?s)<updated>(.*?)</updated>`)
	authorRe      = regexp.MustCompile(`(?s)<author\b[^>]*>(.*?)</author>`)
	nameRe        = regexp.MustCompile(`(?s)<name>(.*?)</name>`)
	affiliationRe = regexp.MustCompile(`(?s)<arxiv:affiliation\b[^>]*>(.*?)</arxiv:affiliation>`)
	emailRe       = regexp.MustCompile(`(?s)<arxiv:email\b[^>]*>(.*?)</arxiv:email>`)
	categoryRe    = regexp.MustCompile(`<category\b[^>]*?\bterm="([^"]+)"`)
	linkRe        = regexp.MustCompile(`<link\b([^>]*?)/?>`)
	attrRe        = regexp.MustCompile(`([\w:]+)="([^"]*)"`)
	totalRe       = regexp.MustCompile(`<opensearch:totalResults\b[^>]*>\s*(\d+)\s*<`)

	// arxivIDRegex extracts the arXiv ID from the full URL.
	// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
	arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)
)

// Entry is a single feed entry as scanned from the response text.
// Fields are raw strings; missing elements are empty.
type Entry struct {
	ID         string
	Title      string
	Summary    string
	Published  string
	Updated    string
	Authors    []Author
	Categories []string
	Links      []Link
}

// Author is an entry author with the optional arXiv extension fields.
type Author struct {
	Name        string
	Affiliation string
	Email       string
}

// Link is a link element of an entry.
type Link struct {
	Href  string
	Rel   string
	Type  string
	Title string
}

// scanFeed locates every entry section and the reported total.
func scanFeed(body string) ([]Entry, int) {
	total := 0
	if m := totalRe.FindStringSubmatch(body); m != nil {
		total, _ = strconv.Atoi(m[1])
	}

	sections := entryRe.FindAllStringSubmatch(body, -1)
	entries := make([]Entry, 0, len(sections))
	for _, s := range sections {
		entries = append(entries, scanEntry(s[1]))
	}
	return entries, total
}

func scanEntry(section string) Entry {
	e := Entry{
		ID:        firstMatch(idRe, section),
		Title:     firstMatch(titleRe, section),
		Summary:   firstMatch(summaryRe, section),
		Published: firstMatch(publishedRe, section),
		Updated:   firstMatch(updatedRe, section),
	}

	for _, m := range authorRe.FindAllStringSubmatch(section, -1) {
		name := firstMatch(nameRe, m[1])
		if name == "" {
			continue
		}
		e.Authors = append(e.Authors, Author{
			Name:        name,
			Affiliation: firstMatch(affiliationRe, m[1]),
			Email:       firstMatch(emailRe, m[1]),
		})
	}

	for _, m := range categoryRe.FindAllStringSubmatch(section, -1) {
		e.Categories = append(e.Categories, html.UnescapeString(m[1]))
	}

	for _, m := range linkRe.FindAllStringSubmatch(section, -1) {
		var l Link
		for _, a := range attrRe.FindAllStringSubmatch(m[1], -1) {
			v := html.UnescapeString(a[2])
			switch a[1] {
			case "href":
				l.Href = v
			case "rel":
				l.Rel = v
			case "type":
				l.Type = v
			case "title":
				l.Title = v
			}
		}
		if l.Href != "" {
			e.Links = append(e.Links, l)
		}
	}

	return e
}

// firstMatch returns the first capture of re in s, entity-decoded and with
// whitespace collapsed.
func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return normalizeWhitespace(html.UnescapeString(stripCDATA(m[1])))
}

func stripCDATA(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<![CDATA[") && strings.HasSuffix(s, "]]>") {
		return s[len("<![CDATA[") : len(s)-len("]]>")]
	}
	return s
}

// toPaper converts a scanned entry to a domain Paper. Entries without an id,
// a title or a parseable publication date are rejected.
func toPaper(e Entry) (domain.Paper, bool) {
	arxivID := extractArXivID(e.ID)
	if arxivID == "" || e.Title == "" {
		return domain.Paper{}, false
	}
	published, ok := parseTime(e.Published)
	if !ok {
		return domain.Paper{}, false
	}
	updated, _ := parseTime(e.Updated)

	p := domain.Paper{
		ID:         arxivID,
		Title:      e.Title,
		Abstract:   e.Summary,
		Published:  published,
		Updated:    updated,
		Link:       "https://arxiv.org/abs/" + arxivID,
		Categories: e.Categories,
	}

	for _, a := range e.Authors {
		p.Authors = append(p.Authors, a.Name)
		if a.Affiliation != "" || a.Email != "" {
			p.AuthorDetails = append(p.AuthorDetails, domain.AuthorDetail{
				Name:        a.Name,
				Affiliation: a.Affiliation,
				Email:       a.Email,
			})
		}
	}

	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			if p.PDFLink == "" {
				p.PDFLink = l.Href
			}
		case l.Rel == "alternate" && l.Type == "text/html":
			p.Link = l.Href
		}
	}
	if p.PDFLink == "" {
		p.PDFLink = PDFLink(arxivID)
	}

	return p, true
}

// PDFLink derives the document download link for an arXiv identifier.
func PDFLink(arxivID string) string {
	return "https://arxiv.org/pdf/" + arxivID
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345".
// Identifiers that are not URLs are returned as given.
func extractArXivID(entryURL string) string {
	entryURL = strings.TrimSpace(entryURL)
	if entryURL == "" {
		return ""
	}
	if matches := arxivIDRegex.FindStringSubmatch(entryURL); len(matches) == 2 {
		return matches[1]
	}
	if strings.Contains(entryURL, "/") && strings.Contains(entryURL, "://") {
		return ""
	}
	return entryURL
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
