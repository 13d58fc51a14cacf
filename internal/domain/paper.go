package domain

import (
	"strings"
	"time"
)

// Paper is a single entry returned by the paper repository.
type Paper struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Authors       []string       `json:"authors"`
	AuthorDetails []AuthorDetail `json:"author_details,omitempty"`
	Abstract      string         `json:"abstract"`
	Published     time.Time      `json:"published"`
	Updated       time.Time      `json:"updated,omitempty"`
	Link          string         `json:"link"`
	PDFLink       string         `json:"pdf_link"`
	Categories    []string       `json:"categories,omitempty"`
}

// PublishedAfter reports whether the paper was published at or after cutoff.
func (p Paper) PublishedAfter(cutoff time.Time) bool {
	return !p.Published.Before(cutoff)
}

// HasCategory reports whether the paper carries any of the given categories.
// An empty list matches every paper.
func (p Paper) HasCategory(categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, want := range categories {
		for _, have := range p.Categories {
			if strings.EqualFold(strings.TrimSpace(want), have) {
				return true
			}
		}
	}
	return false
}

// AuthorDetail carries the optional per-author metadata some feeds publish.
type AuthorDetail struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Email       string `json:"email,omitempty"`
}

// DetailOf returns the metadata reported for the named author, if any.
func (p Paper) DetailOf(name string) (AuthorDetail, bool) {
	for _, d := range p.AuthorDetails {
		if d.Name == name {
			return d, true
		}
	}
	return AuthorDetail{}, false
}
