package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/docrag/internal/chunk"
	"github.com/coderag/docrag/internal/docset"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

type memSink struct {
	added []docset.Document
}

func (m *memSink) Add(doc docset.Document, _ docset.Vector) (string, error) {
	m.added = append(m.added, doc)
	return doc.ID, nil
}

func page(title string, links ...string) string {
	body := fmt.Sprintf("<html><head><title>%s</title></head><body><h1>%s</h1><p>Some documentation content that is long enough to survive the quality filter threshold easily, repeated padding words follow here to be safe.</p>", title, title)
	for _, l := range links {
		body += fmt.Sprintf(`<a href="%s">link</a>`, l)
	}
	body += "</body></html>"
	return body
}

// newLinkedSite builds a 10-page chain rooted at /docs/0 where each page
// links to the next, satisfying the S6 max_pages scenario.
func newLinkedSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for i := 0; i < 10; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/docs/%d", i), func(w http.ResponseWriter, r *http.Request) {
			next := fmt.Sprintf("/docs/%d", i+1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(page(fmt.Sprintf("Page %d", i), next)))
		})
	}
	return httptest.NewServer(mux)
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	srv := newLinkedSite(t)
	defer srv.Close()

	cfg := DefaultConfig(srv.URL + "/docs/0")
	cfg.MaxPages = 3
	cfg.ConcurrentRequests = 2
	cfg.DelayMs = 0
	cfg.IncludePatterns = nil
	cfg.ExcludePatterns = nil
	cfg.AllowedDomains = nil

	c := New(cfg, nil, nil, nil)
	sink := &memSink{}
	chunker := chunk.New(chunk.DefaultStrategy())

	result, err := c.Crawl(context.Background(), chunker, stubEmbedder{}, sink)
	require.NoError(t, err)

	assert.Len(t, result.FetchedURLs, 3)
	seen := make(map[string]bool)
	for _, u := range result.FetchedURLs {
		assert.False(t, seen[u], "duplicate fetch of %s", u)
		seen[u] = true
	}
	assert.Equal(t, 0, result.Failed)
}

func TestCrawlPolitenessSpacing(t *testing.T) {
	srv := newLinkedSite(t)
	defer srv.Close()

	cfg := DefaultConfig(srv.URL + "/docs/0")
	cfg.MaxPages = 3
	cfg.ConcurrentRequests = 1
	cfg.DelayMs = 50
	cfg.IncludePatterns = nil
	cfg.ExcludePatterns = nil

	c := New(cfg, nil, nil, nil)
	sink := &memSink{}
	chunker := chunk.New(chunk.DefaultStrategy())

	start := time.Now()
	result, err := c.Crawl(context.Background(), chunker, stubEmbedder{}, sink)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, result.FetchedURLs, 3)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestCrawlUnreachableStartURL(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1/unreachable")
	cfg.MaxPages = 5
	cfg.DelayMs = 0
	cfg.IncludePatterns = nil
	cfg.ExcludePatterns = nil

	c := New(cfg, nil, nil, nil)
	sink := &memSink{}
	chunker := chunk.New(chunk.DefaultStrategy())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.Crawl(ctx, chunker, stubEmbedder{}, sink)
	require.NoError(t, err)
	assert.Empty(t, result.FetchedURLs)
	assert.Equal(t, 1, result.Failed)
}

func TestCrawlSinglePageModeDoesNotFollowLinks(t *testing.T) {
	srv := newLinkedSite(t)
	defer srv.Close()

	cfg := DefaultConfig(srv.URL + "/docs/0")
	cfg.Mode = SinglePage
	cfg.MaxPages = 10
	cfg.DelayMs = 0
	cfg.IncludePatterns = nil
	cfg.ExcludePatterns = nil

	c := New(cfg, nil, nil, nil)
	sink := &memSink{}
	chunker := chunk.New(chunk.DefaultStrategy())

	result, err := c.Crawl(context.Background(), chunker, stubEmbedder{}, sink)
	require.NoError(t, err)
	assert.Len(t, result.FetchedURLs, 1)
}
