package mcpserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/docrag/internal/config"
	"github.com/coderag/docrag/internal/docset"
	"github.com/coderag/docrag/internal/store"
)

type stubEmbedder struct{ dims int }

func (e stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dims)
	for i := range v {
		v[i] = float32(len(text)) / float32(i+1)
	}
	return v, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e stubEmbedder) Dimensions() int                  { return e.dims }
func (e stubEmbedder) ModelName() string                { return "stub" }
func (e stubEmbedder) Available(_ context.Context) bool { return true }
func (e stubEmbedder) Close() error                     { return nil }

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "vectordb.json"), 4)
	_, err := st.Add(docset.Document{
		Content: "Rust is a systems programming language focused on safety",
		URL:     "https://docs.example.com/rust",
		Title:   "Rust overview",
	}, docset.Vector{Values: []float32{1, 0.1, 0.1, 0}})
	require.NoError(t, err)
	_, err = st.Add(docset.Document{
		Content: "Python is a high-level programming language",
		URL:     "https://docs.example.com/python",
		Title:   "Python overview",
	}, docset.Vector{Values: []float32{0.1, 1, 0.1, 0}})
	require.NoError(t, err)
	return st
}

func TestHandleSearchReturnsRankedResults(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "programming language", Limit: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Results)
}

func TestHandleSearchRejectsEmptyQuery(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: ""})
	require.Error(t, err)
}

func TestHandleSearchBM25OnlySkipsEmbedding(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "rust safety", BM25Only: true})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, float64(0), out.Results[0].VectorScore)
}

func TestHandleListSourcesReportsCounts(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleListSources(context.Background(), nil, ListSourcesInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.Len(t, out.Sources, 2)
}

func TestHandleReloadReloadsFromDisk(t *testing.T) {
	st := seededStore(t)
	require.NoError(t, st.Save())
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleReload(context.Background(), nil, ReloadInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.DocumentCount)
}

func TestHandleManageClearRemovesAllEntries(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleManage(context.Background(), nil, ManageInput{Action: "clear"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.Equal(t, 0, out.DocumentCount)
}

func TestHandleManageRemoveSourceRemovesMatchingEntries(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleManage(context.Background(), nil, ManageInput{Action: "remove_source", URL: "https://docs.example.com/rust"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Removed)
	assert.Equal(t, 1, out.DocumentCount)
}

func TestHandleManageUnknownActionIsRejected(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, _, err := s.handleManage(context.Background(), nil, ManageInput{Action: "explode"})
	require.Error(t, err)
}

func TestHandleIngestRequiresURL(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, _, err := s.handleIngest(context.Background(), nil, IngestInput{})
	require.Error(t, err)
}

func TestHandleIngestRequiresEmbedder(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, _, err := s.handleIngest(context.Background(), nil, IngestInput{URL: "http://127.0.0.1:1/start"})
	require.Error(t, err)
}

func TestHandleManageDryRunReportsWithoutMutating(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleManage(context.Background(), nil, ManageInput{
		Action: "remove_source", URL: "https://docs.example.com/rust", DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 1, out.Removed)
	assert.Equal(t, 2, st.Count(), "dry_run must not mutate the store")
}

func TestHandleManageExpireDryRunCountsWithoutMutating(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, out, err := s.handleManage(context.Background(), nil, ManageInput{
		Action: "remove_older_than", OlderThanDays: 1, DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 0, out.Removed, "freshly-added entries have no last_updated older than 1 day")
	assert.Equal(t, 2, st.Count())
}

func TestHandleManageRefreshRequiresURL(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, _, err := s.handleManage(context.Background(), nil, ManageInput{Action: "refresh"})
	require.Error(t, err)
}

func TestHandleManageRefreshRequiresEmbedder(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), nil, nil, nil)

	_, _, err := s.handleManage(context.Background(), nil, ManageInput{Action: "refresh", URL: "https://docs.example.com/rust"})
	require.Error(t, err)
}

func TestHandleManageRefreshDryRunCountsWithoutCrawling(t *testing.T) {
	st := seededStore(t)
	s := New(st, config.NewConfig(), stubEmbedder{dims: 4}, nil, nil)

	_, out, err := s.handleManage(context.Background(), nil, ManageInput{
		Action: "refresh", URL: "https://docs.example.com/rust", DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 1, out.Removed)
	assert.Equal(t, 2, st.Count(), "dry_run must not remove or re-crawl")
}
