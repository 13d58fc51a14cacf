package query

import (
	"strings"
	"unicode"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// categoryRule maps a keyword found in the request text to a category query.
type categoryRule struct {
	keyword string
	query   domain.StructuredQuery
}

// categoryRules is scanned in order and the first match wins, so longer and
// more specific phrases come before the generic ones they contain.
var categoryRules = []categoryRule{
	{"graph neural network", "cat:cs.LG"},
	{"reinforcement learning", "cat:cs.LG"},
	{"deep learning", "cat:cs.LG"},
	{"machine learning", "cat:cs.LG"},
	{"neural network", "cat:cs.NE OR cat:cs.LG"},
	{"large language model", "cat:cs.CL"},
	{"natural language", "cat:cs.CL"},
	{"nlp", "cat:cs.CL"},
	{"computer vision", "cat:cs.CV"},
	{"image", "cat:cs.CV"},
	{"robot", "cat:cs.RO"},
	{"quantum", "cat:quant-ph"},
	{"cryptography", "cat:cs.CR"},
	{"security", "cat:cs.CR"},
	{"distributed system", "cat:cs.DC"},
	{"database", "cat:cs.DB"},
	{"information retrieval", "cat:cs.IR"},
	{"software engineering", "cat:cs.SE"},
	{"human-computer interaction", "cat:cs.HC"},
	{"artificial intelligence", "cat:cs.AI"},
	{"bioinformatics", "cat:q-bio.QM"},
	{"genomics", "cat:q-bio.GN"},
	{"neuroscience", "cat:q-bio.NC"},
	{"astrophysics", "cat:astro-ph"},
	{"economics", "cat:econ.GN"},
	{"statistics", "cat:stat.ML OR cat:stat.ME"},
}

// stopWords are dropped when building the simplified query.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true, "is": true,
	"of": true, "on": true, "or": true, "the": true, "to": true, "with": true,
	"using": true, "via": true, "about": true, "recent": true, "new": true,
	"research": true, "paper": true, "papers": true, "study": true, "studies": true,
	"approach": true, "approaches": true, "method": true, "methods": true,
}

// simplifiedWordLimit is the number of significant words kept by Simplify.
const simplifiedWordLimit = 3

// Fallback deterministically maps text to a structured query. The first
// keyword rule contained in the lowercased text wins. Without a match the
// text is searched across all fields. Text with nothing searchable yields
// DefaultCategoryQuery.
func Fallback(text string) domain.StructuredQuery {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultCategoryQuery
	}

	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		if containsKeyword(lower, rule.keyword) {
			return rule.query
		}
	}
	if q := AllFields(text); !q.IsEmpty() {
		return q
	}
	return DefaultCategoryQuery
}

// containsKeyword matches kw at a word start so "nlp" does not match inside
// an unrelated token. Trailing characters are allowed for plurals.
func containsKeyword(text, kw string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 || !isWordRune(rune(text[i-1])) {
			return true
		}
		from = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AllFields wraps text as an all-fields term, quoting multi-word phrases.
func AllFields(text string) domain.StructuredQuery {
	text = strings.Join(strings.Fields(strings.ReplaceAll(text, `"`, "")), " ")
	if text == "" {
		return ""
	}
	if strings.Contains(text, " ") {
		return domain.StructuredQuery(`all:"` + text + `"`)
	}
	return domain.StructuredQuery("all:" + text)
}

// Simplify builds an all-fields query over the first three significant words
// of text, ANDed together. It returns an empty query when nothing significant
// remains.
func Simplify(text string) domain.StructuredQuery {
	words := SignificantWords(text, simplifiedWordLimit)
	if len(words) == 0 {
		return ""
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = "all:" + w
	}
	return domain.StructuredQuery(strings.Join(parts, " AND "))
}

// SignificantWords returns up to limit lowercased words of text with
// punctuation and stop words removed, in order of appearance.
func SignificantWords(text string, limit int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r) && r != '-'
	})

	words := make([]string, 0, limit)
	for _, tok := range tokens {
		tok = strings.Trim(tok, "-")
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		words = append(words, tok)
		if len(words) == limit {
			break
		}
	}
	return words
}
