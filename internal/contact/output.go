package contact

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/extract"
)

// placeholders are values agents write for fields they did not find.
var placeholders = map[string]bool{
	"": true, "null": true, "none": true, "n/a": true, "na": true, "unknown": true, "not found": true, "-": true,
}

func hasOutput(output string, structured json.RawMessage) bool {
	return strings.TrimSpace(output) != "" || !isNullJSON(structured)
}

func isNullJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// ParseOutput turns a finished task's output into contact fields. Structured
// output is decoded directly; free-text output (which may be HTML or a JSON
// document) is scanned with the contact patterns. The result is never nil in
// meaning: a lookup that found nothing yields a zero result.
func ParseOutput(structured json.RawMessage, output string) domain.ContactExtractionResult {
	if result, ok := decodeStructured(structured); ok && result.HasAny() {
		return result
	}
	if result, ok := decodeStructured(json.RawMessage(extractJSONObject(output))); ok && result.HasAny() {
		return result
	}
	return extract.ScanContacts(extract.StripHTML(output))
}

// decodeStructured accepts an object or a JSON string holding an object.
func decodeStructured(raw json.RawMessage) (domain.ContactExtractionResult, bool) {
	var result domain.ContactExtractionResult
	if isNullJSON(raw) {
		return result, false
	}

	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return result, false
		}
		raw = json.RawMessage(extractJSONObject(inner))
		if len(raw) == 0 {
			return result, false
		}
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.ContactExtractionResult{}, false
	}
	return clean(result), true
}

func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clean(r domain.ContactExtractionResult) domain.ContactExtractionResult {
	for _, f := range []*string{&r.Email, &r.Phone, &r.Website, &r.LinkedIn, &r.Twitter, &r.OfficeAddress, &r.Department} {
		*f = strings.TrimSpace(*f)
		if placeholders[strings.ToLower(*f)] {
			*f = ""
		}
	}
	contacts := r.AdditionalContacts[:0]
	for _, c := range r.AdditionalContacts {
		c = strings.TrimSpace(c)
		if !placeholders[strings.ToLower(c)] {
			contacts = append(contacts, c)
		}
	}
	r.AdditionalContacts = contacts
	if len(r.AdditionalContacts) == 0 {
		r.AdditionalContacts = nil
	}
	return r
}
