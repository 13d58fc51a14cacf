package domain

import "strings"

// Researcher is a person discovered through papers, progressively enriched.
// Enrichment is additive: fields are filled in, never cleared.
type Researcher struct {
	Name               string             `json:"name"`
	Email              string             `json:"email,omitempty"`
	ORCID              string             `json:"orcid,omitempty"`
	Institution        string             `json:"institution,omitempty"`
	Website            string             `json:"website,omitempty"`
	LinkedIn           string             `json:"linkedin,omitempty"`
	GoogleScholar      string             `json:"google_scholar,omitempty"`
	ResearchGate       string             `json:"researchgate,omitempty"`
	Twitter            string             `json:"twitter,omitempty"`
	ResearchAreas      []string           `json:"research_areas,omitempty"`
	Papers             []string           `json:"papers,omitempty"`
	PaperCount         int                `json:"paper_count"`
	AdditionalContacts []string           `json:"additional_contacts,omitempty"`
	Profile            *EnrichmentProfile `json:"profile,omitempty"`
}

// ProfilePaper is a recent paper listed in a citation profile.
type ProfilePaper struct {
	Title     string `json:"title"`
	Year      *int   `json:"year,omitempty"`
	Citations *int   `json:"citations,omitempty"`
	Link      string `json:"link,omitempty"`
}

// EnrichmentProfile is the citation profile attached by the profile lookup.
type EnrichmentProfile struct {
	Title          string         `json:"title,omitempty"`
	Affiliation    string         `json:"affiliation,omitempty"`
	TotalCitations int            `json:"total_citations"`
	ProfileLink    string         `json:"profile_link,omitempty"`
	RecentPapers   []ProfilePaper `json:"recent_papers,omitempty"`
	Interests      []string       `json:"interests,omitempty"`
}

// AddResearchAreas adds areas not already present, ignoring case.
func (r *Researcher) AddResearchAreas(areas ...string) {
	r.ResearchAreas = appendUnique(r.ResearchAreas, areas...)
}

// AddPapers adds paper titles not already present, ignoring case.
func (r *Researcher) AddPapers(titles ...string) {
	r.Papers = appendUnique(r.Papers, titles...)
}

// AddContacts adds contact strings not already present, ignoring case.
func (r *Researcher) AddContacts(contacts ...string) {
	r.AdditionalContacts = appendUnique(r.AdditionalContacts, contacts...)
}

// FillFrom copies every field of other into r that r has left empty, and
// unions the list fields. PaperCount keeps the larger value.
func (r *Researcher) FillFrom(other Researcher) {
	fill(&r.Email, other.Email)
	fill(&r.ORCID, other.ORCID)
	fill(&r.Institution, other.Institution)
	fill(&r.Website, other.Website)
	fill(&r.LinkedIn, other.LinkedIn)
	fill(&r.GoogleScholar, other.GoogleScholar)
	fill(&r.ResearchGate, other.ResearchGate)
	fill(&r.Twitter, other.Twitter)
	r.AddResearchAreas(other.ResearchAreas...)
	r.AddPapers(other.Papers...)
	r.AddContacts(other.AdditionalContacts...)
	if other.PaperCount > r.PaperCount {
		r.PaperCount = other.PaperCount
	}
	if r.Profile == nil && other.Profile != nil {
		p := *other.Profile
		r.Profile = &p
	}
}

// ApplyContacts fills empty contact fields from an extraction result.
func (r *Researcher) ApplyContacts(c ContactExtractionResult) {
	fill(&r.Email, c.Email)
	fill(&r.Website, c.Website)
	fill(&r.LinkedIn, c.LinkedIn)
	fill(&r.Twitter, c.Twitter)
	if c.Phone != "" {
		r.AddContacts(c.Phone)
	}
	r.AddContacts(c.AdditionalContacts...)
}

// ProfileLink returns the best link to drive a contact lookup from: the
// citation profile link, then the Google Scholar, website and LinkedIn links.
func (r Researcher) ProfileLink() string {
	if r.Profile != nil && r.Profile.ProfileLink != "" {
		return r.Profile.ProfileLink
	}
	for _, link := range []string{r.GoogleScholar, r.Website, r.LinkedIn} {
		if strings.TrimSpace(link) != "" {
			return link
		}
	}
	return ""
}

func fill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
