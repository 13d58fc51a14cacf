package arxiv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFeed(t *testing.T) {
	feed := renderFeed(1, feedEntry{
		id:          "2301.12345v2",
		title:       "Attention &amp; Graphs:\n    A Survey",
		summary:     "  We study\n  graphs.  ",
		published:   "2023-01-15T18:30:00Z",
		authors:     []string{"Ada Lovelace", "Alan Turing"},
		categories:  []string{"cs.LG", "stat.ML"},
		pdf:         "http://arxiv.org/pdf/2301.12345v2",
		affiliation: "University of London",
	})

	entries, total := scanFeed(feed)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, total)

	e := entries[0]
	assert.Equal(t, "http://arxiv.org/abs/2301.12345v2", e.ID)
	assert.Equal(t, "Attention & Graphs: A Survey", e.Title)
	assert.Equal(t, "We study graphs.", e.Summary)
	require.Len(t, e.Authors, 2)
	assert.Equal(t, "University of London", e.Authors[0].Affiliation)
	assert.Empty(t, e.Authors[1].Affiliation)
	assert.Equal(t, []string{"cs.LG", "stat.ML"}, e.Categories)
	require.Len(t, e.Links, 2)

	p, ok := toPaper(e)
	require.True(t, ok)
	assert.Equal(t, "2301.12345", p.ID)
	assert.Equal(t, "http://arxiv.org/pdf/2301.12345v2", p.PDFLink)
	assert.Equal(t, "http://arxiv.org/abs/2301.12345v2", p.Link)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, time.Date(2023, 1, 15, 18, 30, 0, 0, time.UTC), p.Published)

	detail, found := p.DetailOf("Ada Lovelace")
	require.True(t, found)
	assert.Equal(t, "University of London", detail.Affiliation)
}

func TestToPaper_DerivesPDFLink(t *testing.T) {
	p, ok := toPaper(Entry{
		ID:        "http://arxiv.org/abs/hep-th/9901001v1",
		Title:     "Strings",
		Published: "1999-01-01T00:00:00Z",
	})
	require.True(t, ok)
	assert.Equal(t, "hep-th/9901001", p.ID)
	assert.Equal(t, "https://arxiv.org/pdf/hep-th/9901001", p.PDFLink)
	assert.Equal(t, "https://arxiv.org/abs/hep-th/9901001", p.Link)
}

func TestScanEntry_AuthorEmailAndCDATA(t *testing.T) {
	section := `
		<id>http://arxiv.org/abs/2402.00001v1</id>
		<title><![CDATA[Quantum  Things]]></title>
		<published>2024-02-01</published>
		<author><name>Grace Hopper</name><arxiv:email>grace@navy.mil</arxiv:email></author>
		<author><name></name></author>
		<arxiv:primary_category term="quant-ph"/>
		<category term="quant-ph"/>`

	e := scanEntry(section)
	assert.Equal(t, "Quantum Things", e.Title)
	require.Len(t, e.Authors, 1, "authors without names are dropped")
	assert.Equal(t, "grace@navy.mil", e.Authors[0].Email)
	assert.Equal(t, []string{"quant-ph"}, e.Categories)

	p, ok := toPaper(e)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.Published)
}

func TestExtractArXivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.12345v1", "2301.12345"},
		{"https://arxiv.org/abs/2301.12345", "2301.12345"},
		{"http://arxiv.org/abs/hep-th/9901001v3", "hep-th/9901001"},
		{"2301.12345", "2301.12345"},
		{"https://example.com/paper/1", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArXivID(tt.in))
		})
	}
}
