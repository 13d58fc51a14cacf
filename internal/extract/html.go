package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements end a line when HTML is flattened to text.
const blockElements = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, address"

// StripHTML flattens an HTML fragment to text. Script and style contents are
// dropped, block elements become line breaks and link targets are kept next
// to their text so profile URLs survive. Input that is not HTML comes back
// unchanged apart from entity decoding.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "http") || strings.HasPrefix(href, "mailto:") {
			a.AppendHtml(" " + strings.TrimPrefix(href, "mailto:") + " ")
		}
	})
	doc.Find(blockElements).Each(func(_ int, el *goquery.Selection) {
		el.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
