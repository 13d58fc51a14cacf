package arxiv

import (
	"fmt"
	"strings"
)

// feedEntry renders one Atom entry for tests. Empty fields are omitted.
type feedEntry struct {
	id          string
	title       string
	summary     string
	published   string
	authors     []string
	categories  []string
	pdf         string
	affiliation string
}

func (e feedEntry) render() string {
	var sb strings.Builder
	sb.WriteString("  <entry>\n")
	if e.id != "" {
		fmt.Fprintf(&sb, "    <id>http://arxiv.org/abs/%s</id>\n", e.id)
	}
	if e.published != "" {
		fmt.Fprintf(&sb, "    <published>%s</published>\n", e.published)
		fmt.Fprintf(&sb, "    <updated>%s</updated>\n", e.published)
	}
	if e.title != "" {
		fmt.Fprintf(&sb, "    <title>%s</title>\n", e.title)
	}
	if e.summary != "" {
		fmt.Fprintf(&sb, "    <summary>%s</summary>\n", e.summary)
	}
	for i, a := range e.authors {
		sb.WriteString("    <author>\n")
		fmt.Fprintf(&sb, "      <name>%s</name>\n", a)
		if i == 0 && e.affiliation != "" {
			fmt.Fprintf(&sb, "      <arxiv:affiliation xmlns:arxiv=\"http://arxiv.org/schemas/atom\">%s</arxiv:affiliation>\n", e.affiliation)
		}
		sb.WriteString("    </author>\n")
	}
	if e.id != "" {
		fmt.Fprintf(&sb, "    <link href=\"http://arxiv.org/abs/%s\" rel=\"alternate\" type=\"text/html\"/>\n", e.id)
	}
	if e.pdf != "" {
		fmt.Fprintf(&sb, "    <link title=\"pdf\" href=\"%s\" rel=\"related\" type=\"application/pdf\"/>\n", e.pdf)
	}
	for _, c := range e.categories {
		fmt.Fprintf(&sb, "    <category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", c)
	}
	sb.WriteString("  </entry>\n")
	return sb.String()
}

func renderFeed(total int, entries ...feedEntry) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	sb.WriteString("  <title type=\"html\">ArXiv Query</title>\n")
	sb.WriteString("  <id>http://arxiv.org/api/feed</id>\n")
	fmt.Fprintf(&sb, "  <opensearch:totalResults xmlns:opensearch=\"http://a9.com/-/spec/opensearch/1.1/\">%d</opensearch:totalResults>\n", total)
	for _, e := range entries {
		sb.WriteString(e.render())
	}
	sb.WriteString("</feed>\n")
	return sb.String()
}
