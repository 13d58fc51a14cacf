package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/extract"
	"github.com/helixir/researcher-discovery-service/internal/llm"
)

const (
	operationScholarLink   = "scholar_link"
	operationResearchAreas = "research_areas"

	maxAIAreas       = 5
	maxFallbackAreas = 3
	maxContextLength = 1500
)

var (
	scholarProfileRe = regexp.MustCompile(`^https?://scholar\.google\.[a-z.]+/citations\?(.*&)?user=`)
	urlTokenRe       = regexp.MustCompile("https?://[^\\s\"'<>)\\]`]+")
)

// errUnparsable marks an LLM reply that is not the expected JSON object.
var errUnparsable = errors.New("unparsable reply")

const scholarLinkSystem = `You locate Google Scholar profiles of academic researchers.
Reply with the profile URL only, in the form https://scholar.google.com/citations?user=<id>.
If you are not certain the profile exists, reply with null.`

const researchAreasSystem = `You describe academic researchers.
Reply with a JSON object only:
{"research_areas": ["area", ...], "linkedin": "url or null", "researchgate": "url or null"}
List at most 5 research areas. Use null for links you are not certain of.`

// IsScholarProfileURL reports whether link is a Google Scholar profile URL.
func IsScholarProfileURL(link string) bool {
	return scholarProfileRe.MatchString(link)
}

// suggestScholarLink asks the LLM for a Google Scholar profile URL. A reply
// that is null or not a profile URL yields an empty link and no error.
func (e *Enricher) suggestScholarLink(ctx context.Context, r domain.Researcher) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.LLMTimeout)
	defer cancel()

	resp, err := e.completer.Complete(ctx, llm.Request{
		System:      scholarLinkSystem,
		Prompt:      describe(r, ""),
		Temperature: llm.Temperature(0),
		MaxTokens:   100,
		Operation:   operationScholarLink,
	})
	if err != nil {
		return "", err
	}
	return ParseScholarLink(resp.Content), nil
}

// ParseScholarLink returns the first Google Scholar profile URL in reply, or
// "" when there is none.
func ParseScholarLink(reply string) string {
	reply = llm.StripCodeFence(reply)
	for _, candidate := range urlTokenRe.FindAllString(reply, -1) {
		candidate = strings.TrimRight(candidate, ".,;")
		if IsScholarProfileURL(candidate) {
			return candidate
		}
	}
	return ""
}

// AreasReply is the JSON shape requested by researchAreasSystem.
type AreasReply struct {
	ResearchAreas []string `json:"research_areas"`
	LinkedIn      *string  `json:"linkedin"`
	ResearchGate  *string  `json:"researchgate"`
}

// addResearchAreas fills research areas and social links from the LLM. Any
// error means the caller should use the keyword fallback. Without an LLM the
// fallback runs here directly.
func (e *Enricher) addResearchAreas(ctx context.Context, r *domain.Researcher, contextText string) error {
	if e.completer == nil {
		r.AddResearchAreas(KeywordAreas(contextText, maxFallbackAreas)...)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.LLMTimeout)
	defer cancel()

	resp, err := e.completer.Complete(ctx, llm.Request{
		System:      researchAreasSystem,
		Prompt:      describe(*r, contextText),
		Temperature: llm.Temperature(0.2),
		MaxTokens:   300,
		JSON:        true,
		Operation:   operationResearchAreas,
	})
	if err != nil {
		return err
	}

	reply, err := ParseAreasReply(resp.Content)
	if err != nil {
		return err
	}

	areas := reply.ResearchAreas
	if len(areas) > maxAIAreas {
		areas = areas[:maxAIAreas]
	}
	r.AddResearchAreas(areas...)
	if reply.LinkedIn != nil && r.LinkedIn == "" && strings.Contains(*reply.LinkedIn, "linkedin.com/") {
		r.LinkedIn = strings.TrimSpace(*reply.LinkedIn)
	}
	if reply.ResearchGate != nil && r.ResearchGate == "" && strings.Contains(*reply.ResearchGate, "researchgate.net/") {
		r.ResearchGate = strings.TrimSpace(*reply.ResearchGate)
	}
	return nil
}

// ParseAreasReply decodes the research areas JSON object, tolerating code
// fences and prose around the object.
func ParseAreasReply(content string) (AreasReply, error) {
	var reply AreasReply

	content = llm.StripCodeFence(content)
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return reply, fmt.Errorf("%w: no JSON object", errUnparsable)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return reply, fmt.Errorf("%w: %v", errUnparsable, err)
	}
	if len(reply.ResearchAreas) == 0 {
		return reply, fmt.Errorf("%w: no research areas", errUnparsable)
	}
	return reply, nil
}

func describe(r domain.Researcher, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Researcher: %s\n", r.Name)
	if r.Institution != "" {
		fmt.Fprintf(&b, "Institution: %s\n", r.Institution)
	}
	if len(r.Papers) > 0 {
		fmt.Fprintf(&b, "Papers: %s\n", strings.Join(r.Papers, "; "))
	}
	if contextText = strings.TrimSpace(contextText); contextText != "" {
		fmt.Fprintf(&b, "Context: %s\n", extract.Clip(contextText, maxContextLength))
	}
	return b.String()
}
