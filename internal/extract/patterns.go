package extract

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	orcidRe = regexp.MustCompile(`\b\d{4}-\d{4}-\d{4}-\d{3}[\dX]\b`)
	urlRe   = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)

	linkedInRe     = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+/?`)
	scholarRe      = regexp.MustCompile(`(?i)(?:https?://)?scholar\.google\.[a-z.]+/citations\?[^\s<>"']*user=[A-Za-z0-9_\-]+[^\s<>"']*`)
	researchGateRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?researchgate\.net/profile/[A-Za-z0-9_\-%.]+`)
	twitterRe      = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?\b(?:twitter|x)\.com/[A-Za-z0-9_]{1,15}\b`)
	phoneRe        = regexp.MustCompile(`\+\d{1,3}[\s.\-]?(?:\(\d{1,4}\)|\d{1,4})(?:[\s.\-]?\d{2,8}){1,3}\b|(?:\(\d{2,4}\)|\d{2,4})[\s.\-]\d{3,4}[\s.\-]\d{3,4}\b`)

	// Name shapes: "First Last", "First M. Last" and, inside an author
	// section, "First Middle Last". Hyphenated parts are allowed.
	nameTwoRe    = regexp.MustCompile(`\b[A-Z][a-z]+(?:-[A-Z][a-z]+)?(?:\s+[A-Z]\.)?\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?\b`)
	nameThreeRe  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?\b`)
	digitsOnlyRe = regexp.MustCompile(`^[\d\s.,:/\-]+$`)
)

// Twitter/X paths that are site pages rather than handles.
var twitterReserved = map[string]bool{
	"home": true, "search": true, "share": true, "intent": true, "login": true,
	"explore": true, "settings": true, "i": true, "hashtag": true,
}

// nameStopWords rejects capitalized sequences that are headings, places or
// institutions rather than people.
var nameStopWords = map[string]bool{
	"Abstract": true, "Introduction": true, "Keywords": true, "Key": true, "Words": true,
	"University": true, "Institute": true, "College": true, "School": true,
	"Department": true, "Laboratory": true, "Lab": true, "Center": true, "Centre": true,
	"Academy": true, "Faculty": true, "Division": true, "Group": true, "Hospital": true,
	"Research": true, "Science": true, "Sciences": true, "Engineering": true,
	"Computer": true, "Computing": true, "Technology": true, "Mathematics": true, "Physics": true,
	"Learning": true, "Neural": true, "Network": true, "Networks": true, "Deep": true,
	"Machine": true, "Data": true, "Model": true, "Models": true, "Graph": true, "Graphs": true,
	"Journal": true, "Conference": true, "Proceedings": true, "Workshop": true, "Preprint": true,
	"Figure": true, "Table": true, "Section": true, "Appendix": true, "Theorem": true, "Lemma": true,
	"Related": true, "Work": true, "Method": true, "Methods": true, "Results": true,
	"Conclusion": true, "Conclusions": true, "Discussion": true, "Background": true,
	"Copyright": true, "License": true, "Licence": true, "Correspondence": true, "Email": true,
	"International": true, "National": true, "Association": true, "Society": true,
	"Foundation": true, "Inc": true, "Corp": true, "Ltd": true, "Street": true, "Road": true,
	"January": true, "February": true, "March": true, "April": true, "May": true, "June": true,
	"July": true, "August": true, "September": true, "October": true, "November": true, "December": true,
	"The": true, "This": true, "That": true, "These": true, "We": true, "Our": true, "In": true,
	"On": true, "Of": true, "For": true, "And": true, "With": true, "From": true, "To": true,
	"Is": true, "Are": true, "All": true, "You": true, "New": true, "Towards": true, "Via": true,
	"Using": true, "Beyond": true, "United": true, "States": true, "Kingdom": true, "Republic": true,
}

// institutionKeywords mark affiliation lines.
var institutionKeywords = []string{
	"University", "Institute", "College", "Laboratory", "Department",
	"School", "Center", "Centre", "Academy",
}

// authorSectionKeywords toggle the author-section flag.
var authorSectionKeywords = []string{"author", "affiliation", "department"}

// titleRejects mark lines that are metadata rather than a title.
var titleRejects = []string{"arxiv", "doi", "http", "@", "©", "preprint", "copyright", "%pdf", "obj", "endobj", "stream"}

func isStopName(candidate string) bool {
	for _, w := range strings.Fields(candidate) {
		w = strings.TrimSuffix(w, ".")
		if nameStopWords[w] {
			return true
		}
		for _, part := range strings.Split(w, "-") {
			if nameStopWords[part] {
				return true
			}
		}
	}
	return false
}

func trimURL(u string) string {
	return strings.TrimRight(u, ".,;:!?")
}
