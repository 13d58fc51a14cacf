package extract

import (
	"strings"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// socialHosts are never reported as a personal website.
var socialHosts = []string{
	"linkedin.com", "twitter.com", "x.com", "scholar.google.", "researchgate.net",
	"facebook.com", "instagram.com", "youtube.com", "orcid.org", "doi.org", "arxiv.org",
}

// ScanContacts re-runs the contact patterns over free text, such as the
// output of a browser automation task. The first match of each kind fills the
// corresponding field; further emails and phone numbers go to
// AdditionalContacts.
func ScanContacts(text string) domain.ContactExtractionResult {
	var result domain.ContactExtractionResult

	emails := uniqueMatches(emailRe, text, strings.ToLower)
	if len(emails) > 0 {
		result.Email = emails[0]
		result.AdditionalContacts = append(result.AdditionalContacts, emails[1:]...)
	}

	// ORCIDs and emails look like phone numbers to the phone pattern.
	phoneText := orcidRe.ReplaceAllString(emailRe.ReplaceAllString(text, " "), " ")
	phones := uniqueMatches(phoneRe, phoneText, strings.TrimSpace)
	if len(phones) > 0 {
		result.Phone = phones[0]
		result.AdditionalContacts = append(result.AdditionalContacts, phones[1:]...)
	}

	if links := uniqueMatches(linkedInRe, text, normalizeProfileURL); len(links) > 0 {
		result.LinkedIn = links[0]
	}

	for _, handle := range uniqueMatches(twitterRe, text, normalizeProfileURL) {
		path := handle[strings.LastIndex(handle, "/")+1:]
		if !twitterReserved[strings.ToLower(path)] {
			result.Twitter = handle
			break
		}
	}

	for _, u := range uniqueMatches(urlRe, text, trimURL) {
		if !isSocialURL(u) {
			result.Website = u
			break
		}
	}

	return result
}

func isSocialURL(u string) bool {
	lower := strings.ToLower(u)
	for _, host := range socialHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
