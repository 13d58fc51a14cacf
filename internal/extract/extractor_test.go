package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/pdf"
)

const samplePaper = `%PDF-1.5
Scalable Graph Neural Networks for Molecular Property Prediction
Ada Lovelace, Alan M. Turing and Grace Hopper
Department of Computer Science, University of Oxford
Institute for Advanced Study, Princeton
ada.lovelace@cs.ox.ac.uk, turing@ias.edu
ORCID: 0000-0002-1825-0097
https://www.linkedin.com/in/ada-lovelace
Abstract
We present a method for predicting molecular properties.`

type fakeFetcher struct {
	content []byte
	err     error
	urls    []string
}

func (f *fakeFetcher) Download(_ context.Context, url string) (*pdf.DownloadResult, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return &pdf.DownloadResult{Content: f.content, SizeBytes: int64(len(f.content))}, nil
}

func TestExtractText_SamplePaper(t *testing.T) {
	result := ExtractText(samplePaper)

	assert.Equal(t, "Scalable Graph Neural Networks for Molecular Property Prediction", result.Title)

	require.Len(t, result.Researchers, 3)
	assert.Equal(t, "Ada Lovelace", result.Researchers[0].Name)
	assert.Equal(t, "Alan M. Turing", result.Researchers[1].Name)
	assert.Equal(t, "Grace Hopper", result.Researchers[2].Name)

	// Positional pairing.
	assert.Equal(t, "ada.lovelace@cs.ox.ac.uk", result.Researchers[0].Email)
	assert.Equal(t, "turing@ias.edu", result.Researchers[1].Email)
	assert.Empty(t, result.Researchers[2].Email)
	assert.Equal(t, "0000-0002-1825-0097", result.Researchers[0].ORCID)
	assert.Equal(t, "https://www.linkedin.com/in/ada-lovelace", result.Researchers[0].LinkedIn)
	assert.Equal(t, "Department of Computer Science, University of Oxford", result.Researchers[0].Institution)
	assert.Equal(t, "Institute for Advanced Study, Princeton", result.Researchers[1].Institution)
	assert.Empty(t, result.Researchers[2].Institution)

	assert.Equal(t, []string{"ada.lovelace@cs.ox.ac.uk", "turing@ias.edu"}, result.Emails)
	assert.Equal(t, []string{"0000-0002-1825-0097"}, result.ORCIDs)
	assert.Contains(t, result.URLs, "https://www.linkedin.com/in/ada-lovelace")
}

func TestExtractText_SingleInstitutionIsShared(t *testing.T) {
	result := ExtractText("A Study of Things That Matter a Great Deal\nMarie Curie and Pierre Curie\nUniversity of Paris\n")

	require.Len(t, result.Researchers, 2)
	assert.Equal(t, "University of Paris", result.Researchers[0].Institution)
	assert.Equal(t, "University of Paris", result.Researchers[1].Institution)
}

func TestExtractText_NeverMoreThanTenResearchers(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("A Very Large Collaboration Paper On Physics\nAuthors:\n")
	first := []string{"Aaron", "Bella", "Carlos", "Dana", "Elena", "Felix", "Gina", "Hugo", "Iris", "Jonas", "Karla", "Liam"}
	for _, f := range first {
		sb.WriteString(f + " Smithson\n")
	}

	result := ExtractText(sb.String())
	assert.Len(t, result.Researchers, MaxResearchers)
}

func TestExtractText_LineLimits(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("A Title Line That Is Long Enough To Count\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("filler text line\n")
	}
	sb.WriteString("Late Author\n")
	sb.WriteString("University of Nowhere\n")

	result := ExtractText(sb.String())
	assert.Empty(t, result.Researchers, "names beyond line 30 are ignored")

	var sb2 strings.Builder
	for i := 0; i < 32; i++ {
		sb2.WriteString("x\n")
	}
	sb2.WriteString("University of Somewhere\n")
	for i := 0; i < 5; i++ {
		sb2.WriteString("x\n")
	}
	sb2.WriteString("Institute of Too Late\n")

	insts := findInstitutions(strings.Split(sb2.String(), "\n"))
	assert.Equal(t, []string{"University of Somewhere"}, insts)
}

func TestExtractText_AuthorSectionAdmitsThreeWordNames(t *testing.T) {
	text := "On the Behaviour of Large Systems Today\nAuthor information\nMaria Luisa Gomez\n"
	result := ExtractText(text)

	require.Len(t, result.Researchers, 1)
	assert.Equal(t, "Maria Luisa Gomez", result.Researchers[0].Name)

	withoutFlag := ExtractText("On the Behaviour of Large Systems Today\nMaria Luisa Gomez\n")
	require.NotEmpty(t, withoutFlag.Researchers)
	assert.NotEqual(t, "Maria Luisa Gomez", withoutFlag.Researchers[0].Name)
}

func TestExtractText_StopWordsRejected(t *testing.T) {
	result := ExtractText("Graph Learning Revisited in a New Light Today\nUniversity College\nAbstract Introduction\nJohn Smith\n")

	require.Len(t, result.Researchers, 1)
	assert.Equal(t, "John Smith", result.Researchers[0].Name)
}

func TestGuessTitle(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"skips short and metadata lines", []string{"%PDF-1.4", "arXiv:2301.12345v1 [cs.LG] 1 Jan 2023", "short", "Learning to Rank with Graphs at Scale"}, "Learning to Rank with Graphs at Scale"},
		{"skips urls and emails", []string{"see https://example.org/project-page", "contact: someone@example.org now", "An Actual Title Of Reasonable Length"}, "An Actual Title Of Reasonable Length"},
		{"skips numbers", []string{"2023-01-01 12:00:00 1234567890", "Another Title That Is Long Enough"}, "Another Title That Is Long Enough"},
		{"none", []string{"tiny", "©2023 Someone Publishing Group Ltd"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := guessTitle(tt.lines)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fetcher := &fakeFetcher{content: []byte(samplePaper)}
		e := New(fetcher, Config{}, zerolog.Nop(), nil)

		result, err := e.Extract(context.Background(), "http://arxiv.org/pdf/2301.12345v1")
		require.NoError(t, err)

		assert.Equal(t, []string{"https://arxiv.org/pdf/2301.12345v1"}, fetcher.urls)
		assert.Equal(t, "https://arxiv.org/pdf/2301.12345v1", result.SourceURL)
		assert.Len(t, result.Researchers, 3)
	})

	t.Run("invalid url is rejected without fetching", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		e := New(fetcher, Config{}, zerolog.Nop(), nil)

		_, err := e.Extract(context.Background(), "ftp://example.org/paper.pdf")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, fetcher.urls)
	})

	t.Run("download failure is a hard error", func(t *testing.T) {
		fetcher := &fakeFetcher{err: fmt.Errorf("%w: HTTP 404", pdf.ErrDownloadFailed)}
		e := New(fetcher, Config{}, zerolog.Nop(), nil)

		_, err := e.Extract(context.Background(), "https://example.org/paper.pdf")
		require.Error(t, err)
		assert.True(t, errors.Is(err, pdf.ErrDownloadFailed))
	})

	t.Run("prefix bound", func(t *testing.T) {
		content := []byte("Title Of This Particular Paper Here\n" + strings.Repeat(" ", 100) + "\nLate Person\n")
		e := New(&fakeFetcher{content: content}, Config{PrefixBytes: 60}, zerolog.Nop(), nil)

		result, err := e.Extract(context.Background(), "https://example.org/paper.pdf")
		require.NoError(t, err)
		assert.Empty(t, result.Researchers)
	})
}
