package contact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

var domainsResearcher = domain.Researcher{
	Name:     "Ada Lovelace",
	Website:  "www.example.org/~ada",
	LinkedIn: "https://linkedin.com/in/ada",
}

func TestParseOutput(t *testing.T) {
	t.Run("structured object", func(t *testing.T) {
		got := ParseOutput(json.RawMessage(`{"email":"a@b.edu","office_address":"Room 1","additional_contacts":["null","+1 555 0100"]}`), "")
		assert.Equal(t, "a@b.edu", got.Email)
		assert.Equal(t, "Room 1", got.OfficeAddress)
		assert.Equal(t, []string{"+1 555 0100"}, got.AdditionalContacts)
	})

	t.Run("structured output as a JSON string", func(t *testing.T) {
		got := ParseOutput(json.RawMessage(`"{\"twitter\":\"https://x.com/ada\"}"`), "")
		assert.Equal(t, "https://x.com/ada", got.Twitter)
	})

	t.Run("empty structured output falls back to text", func(t *testing.T) {
		got := ParseOutput(json.RawMessage(`{"email":"none"}`), "Reach Ada at ada@london.ac.uk")
		assert.Equal(t, "ada@london.ac.uk", got.Email)
	})

	t.Run("free text", func(t *testing.T) {
		got := ParseOutput(nil, "Email ada@london.ac.uk, see https://www.linkedin.com/in/ada-l and https://ada.example.org/")
		assert.Equal(t, "ada@london.ac.uk", got.Email)
		assert.Contains(t, got.LinkedIn, "linkedin.com/in/ada-l")
		assert.Contains(t, got.Website, "ada.example.org")
	})

	t.Run("nothing", func(t *testing.T) {
		got := ParseOutput(json.RawMessage("null"), "")
		assert.False(t, got.HasAny())
	})
}

func TestAllowedDomains(t *testing.T) {
	domains := allowedDomains(scholarResearcher, "https://scholar.google.com/citations?user=ada")
	assert.Equal(t, "scholar.google.com", domains[0])
	assert.Contains(t, domains, "*.edu")

	domains = allowedDomains(domainsResearcher, "www.example.org/~ada")
	assert.Equal(t, []string{"www.example.org", "linkedin.com"}, domains[:2])
}
