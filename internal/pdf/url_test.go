package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain pdf", "https://example.org/papers/a.pdf", "https://example.org/papers/a.pdf"},
		{"upper case extension", "http://example.org/A.PDF", "http://example.org/A.PDF"},
		{"query string ignored", "https://example.org/a.pdf?download=1", "https://example.org/a.pdf?download=1"},
		{"arxiv pdf without extension", "http://arxiv.org/pdf/2301.12345v2", "https://arxiv.org/pdf/2301.12345v2"},
		{"arxiv pdf with extension", "https://arxiv.org/pdf/2301.12345.pdf", "https://arxiv.org/pdf/2301.12345"},
		{"arxiv abstract", "https://export.arxiv.org/abs/2301.12345", "https://arxiv.org/pdf/2301.12345"},
		{"arxiv old style", "https://arxiv.org/pdf/hep-th/9901001v1", "https://arxiv.org/pdf/hep-th/9901001v1"},
		{"surrounding spaces", "  https://example.org/a.pdf ", "https://example.org/a.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURL_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"ftp scheme", "ftp://example.org/a.pdf"},
		{"file scheme", "file:///etc/passwd.pdf"},
		{"no scheme", "example.org/a.pdf"},
		{"not a pdf", "https://example.org/index.html"},
		{"pdf only in query", "https://example.org/view?file=a.pdf"},
		{"arxiv listing", "https://arxiv.org/list/cs.LG/recent"},
		{"missing host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
