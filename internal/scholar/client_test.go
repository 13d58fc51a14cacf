package scholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/papersources"
)

const sampleResponse = `{
  "organic_results": [
    {
      "title": "Deep <b>learning</b> for graphs",
      "link": "https://example.org/a",
      "publication_info": {
        "summary": "Y LeCun, Y Bengio - Nature, 2021 - nature.com",
        "authors": [
          {"name": "Y LeCun", "link": "https://scholar.google.com/citations?user=WLN3QrAAAAAJ", "author_id": "WLN3QrAAAAAJ"},
          {"name": "Y Bengio", "link": "https://scholar.google.com/citations?user=kukA0LcAAAAJ", "author_id": "kukA0LcAAAAJ"}
        ]
      },
      "inline_links": {"cited_by": {"total": 120}}
    },
    {
      "title": "Self-supervised learning of graph representations",
      "link": "https://example.org/b",
      "publication_info": {"summary": "Y LeCun - arXiv preprint arXiv:2304.01234, 2023 - arxiv.org"},
      "inline_links": {"cited_by": {"total": 30}}
    },
    {
      "title": "Energy-based models",
      "publication_info": {"summary": "Y LeCun - 2019"},
      "inline_links": {}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:     sourceName,
		RateLimit:  1000,
		BurstSize:  10,
		MaxRetries: -1,
	})
	c := NewWithHTTPClient(Config{BaseURL: server.URL, APIKey: "secret"}, httpClient)
	c.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestClient_SearchAuthor(t *testing.T) {
	var captured url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	})

	resp, err := client.SearchAuthor(context.Background(), "Yann LeCun")
	require.NoError(t, err)
	require.Len(t, resp.OrganicResults, 3)

	assert.Equal(t, "google_scholar", captured.Get("engine"))
	assert.Equal(t, `author:"Yann LeCun"`, captured.Get("q"))
	assert.Equal(t, "2021", captured.Get("as_ylo"))
	assert.Equal(t, "20", captured.Get("num"))
	assert.Equal(t, "0", captured.Get("scisbd"))
	assert.Equal(t, "secret", captured.Get("api_key"))

	assert.Equal(t, 120, resp.OrganicResults[0].InlineLinks.CitedBy.Total)
	assert.Nil(t, resp.OrganicResults[2].InlineLinks.CitedBy)
}

func TestClient_SearchAuthor_Errors(t *testing.T) {
	t.Run("disabled without key", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		defer server.Close()

		c := New(Config{BaseURL: server.URL})
		assert.False(t, c.Enabled())

		_, err := c.SearchAuthor(context.Background(), "Yann LeCun")
		assert.ErrorIs(t, err, domain.ErrFeatureDisabled)
		assert.False(t, called)
	})

	t.Run("blank name", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.SearchAuthor(context.Background(), ` " `)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("non-2xx", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
		})
		_, err := client.SearchAuthor(context.Background(), "Yann LeCun")

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("error payload", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Your account has run out of searches."}`))
		})
		_, err := client.SearchAuthor(context.Background(), "Yann LeCun")
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("no results payload", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
		})
		resp, err := client.SearchAuthor(context.Background(), "Nobody Atall")
		require.NoError(t, err)
		assert.Empty(t, resp.OrganicResults)
	})
}
