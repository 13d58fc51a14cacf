// Package query turns a free-text research request into an arXiv search
// expression.
//
// The primary path asks an LLM for a translation. Any failure (no provider,
// transport error, empty or malformed reply) falls back to a deterministic
// keyword to category table, and when no keyword matches the raw text is
// searched across all fields. Translate never returns an error.
package query

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/llm"
	"github.com/helixir/researcher-discovery-service/internal/observability"
)

// DefaultCategories are the categories DefaultCategoryQuery covers.
var DefaultCategories = []string{"cs.AI", "cs.LG"}

const (
	// DefaultCategoryQuery is the broadest query the service ever issues.
	DefaultCategoryQuery domain.StructuredQuery = "cat:cs.AI OR cat:cs.LG"

	// translateTemperature keeps translations close to deterministic.
	translateTemperature = 0.1

	// translateMaxTokens caps the reply; a query is one short line.
	translateMaxTokens = 150

	// maxReplyLength rejects replies that are clearly not a single query.
	maxReplyLength = 400

	// DefaultTimeout bounds a single translation call.
	DefaultTimeout = 15 * time.Second

	operationTranslate = "translate_query"
)

// fieldPrefixRe matches a field prefix from the arXiv query grammar.
var fieldPrefixRe = regexp.MustCompile(`(^|[\s(])(all|ti|abs|au|cat|co|jr|rn|id):`)

// Config holds Translator configuration.
type Config struct {
	// Timeout bounds a single LLM call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Translator converts SearchQuery values into structured queries.
type Translator struct {
	completer llm.Completer
	config    Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewTranslator creates a Translator. A nil completer disables the AI path
// and every translation uses the deterministic fallback.
func NewTranslator(completer llm.Completer, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Translator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Translator{
		completer: completer,
		config:    cfg,
		logger:    logger.With().Str("component", "query_translator").Logger(),
		metrics:   metrics,
	}
}

// AIEnabled reports whether an LLM is configured.
func (t *Translator) AIEnabled() bool {
	return t.completer != nil
}

// Translate returns the structured query for q, with any requested categories
// ANDed onto it.
func (t *Translator) Translate(ctx context.Context, q domain.SearchQuery) domain.StructuredQuery {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		if clause := CategoryClause(q.Filters.Categories); clause != "" {
			return clause
		}
		return DefaultCategoryQuery
	}

	base, ok := t.translateAI(ctx, text)
	if ok {
		t.metrics.RecordQueryTranslation("ai")
	} else {
		base = Fallback(text)
		t.metrics.RecordQueryTranslation("fallback")
	}
	return WithCategories(base, q.Filters.Categories)
}

// translateAI asks the completer for a translation and validates the reply.
func (t *Translator) translateAI(ctx context.Context, text string) (domain.StructuredQuery, bool) {
	if t.completer == nil {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	resp, err := t.completer.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Prompt:      text,
		Temperature: llm.Temperature(translateTemperature),
		MaxTokens:   translateMaxTokens,
		Operation:   operationTranslate,
	})
	if err != nil {
		t.logger.Warn().Err(err).Str("query", text).Msg("AI query translation failed, using fallback")
		return "", false
	}

	q, ok := ParseReply(resp.Content)
	if !ok {
		t.logger.Warn().Str("query", text).Str("reply", truncate(resp.Content, 120)).
			Msg("AI query translation returned an unusable reply, using fallback")
		return "", false
	}

	t.logger.Debug().Str("query", text).Str("structured_query", q.String()).Msg("query translated")
	return q, true
}

// ParseReply cleans an LLM reply and reports whether it is a usable search
// expression: one line, balanced quotes and parentheses and at least one
// field prefix.
func ParseReply(reply string) (domain.StructuredQuery, bool) {
	s := llm.StripCodeFence(reply)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Query:")
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`'"))
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && strings.Count(s, `"`) == 2 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if s == "" || len(s) > maxReplyLength || strings.EqualFold(s, "null") {
		return "", false
	}
	if strings.Count(s, `"`)%2 != 0 || strings.Count(s, "(") != strings.Count(s, ")") {
		return "", false
	}
	if !fieldPrefixRe.MatchString(s) {
		return "", false
	}
	return domain.StructuredQuery(s), true
}

// CategoryClause ORs the given categories together. Blank entries are
// ignored; an empty list yields an empty clause.
func CategoryClause(categories []string) domain.StructuredQuery {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		parts = append(parts, "cat:"+c)
	}
	return domain.StructuredQuery(strings.Join(parts, " OR "))
}

// WithCategories ANDs the category clause onto q: (q) AND (cat:a OR cat:b).
func WithCategories(q domain.StructuredQuery, categories []string) domain.StructuredQuery {
	clause := CategoryClause(categories)
	switch {
	case clause == "":
		return q
	case q.IsEmpty():
		return clause
	}
	return domain.StructuredQuery("(" + q.String() + ") AND (" + clause.String() + ")")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
