package scholar

// SearchResponse is the subset of the SerpAPI Google Scholar response used
// to build profiles.
type SearchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	Error          string          `json:"error,omitempty"`
}

// OrganicResult is one publication hit.
type OrganicResult struct {
	Title           string          `json:"title"`
	Link            string          `json:"link"`
	Snippet         string          `json:"snippet"`
	PublicationInfo PublicationInfo `json:"publication_info"`
	InlineLinks     InlineLinks     `json:"inline_links"`
}

// PublicationInfo holds the byline, e.g. "A Author, B Author - Venue, 2021 - host".
type PublicationInfo struct {
	Summary string      `json:"summary"`
	Authors []AuthorRef `json:"authors"`
}

// AuthorRef links a byline author to their Scholar profile.
type AuthorRef struct {
	Name     string `json:"name"`
	Link     string `json:"link"`
	AuthorID string `json:"author_id"`
}

// InlineLinks carries the citation counter.
type InlineLinks struct {
	CitedBy *CitedBy `json:"cited_by,omitempty"`
}

// CitedBy is the citation count of a result.
type CitedBy struct {
	Total int    `json:"total"`
	Link  string `json:"link"`
}
