package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/docset"
)

// TestHybridBeatsVectorOnly is scenario S2.
func TestHybridBeatsVectorOnly(t *testing.T) {
	docs := []struct {
		id      string
		content string
		vec     []float32
	}{
		{"1", "Rust is a systems programming language focused on safety and performance", []float32{1.0, 0.1, 0.1}},
		{"2", "Python is a high-level programming language known for its readability", []float32{0.1, 1.0, 0.1}},
		{"3", "JavaScript is a web programming language used for frontend development", []float32{0.1, 0.1, 1.0}},
		{"4", "Rust and C++ are both systems programming languages with different approaches to memory safety", []float32{0.8, 0.0, 0.2}},
	}

	index := ann.New(ann.DefaultParams(), rand.New(rand.NewSource(1)))
	entries := make([]docset.Entry, 0, len(docs))
	for _, d := range docs {
		require.NoError(t, index.Add(d.id, d.vec))
		entries = append(entries, docset.Entry{
			ID:       d.id,
			Document: docset.Document{ID: d.id, Content: d.content},
			Vector:   docset.Vector{Values: d.vec},
		})
	}

	opts := Options{
		Limit:         2,
		VectorWeight:  0.6,
		KeywordWeight: 0.4,
		EnableHybrid:  true,
		BM25:          DefaultBM25Params(),
	}

	hits := HybridSearch(index, entries, []float32{0.9, 0.2, 0.1}, "memory safety programming", opts)
	require.NotEmpty(t, hits)
	assert.Equal(t, "4", hits[0].Document.ID, "keyword match on 'memory safety' should lift doc 4 above the nominally closer doc 1")
}

func TestBM25TokenAbsentEverywhereYieldsZero(t *testing.T) {
	entries := []docset.Entry{
		{ID: "1", Document: docset.Document{ID: "1", Content: "alpha beta gamma"}},
		{ID: "2", Document: docset.Document{ID: "2", Content: "beta gamma delta"}},
	}
	idx := BuildBM25Index(entries, DefaultBM25Params())
	score := idx.Score("1", []string{"nonexistentterm"})
	assert.Equal(t, 0.0, score)
}

func TestBM25CommonTermNegativeIDF(t *testing.T) {
	entries := []docset.Entry{
		{ID: "1", Document: docset.Document{ID: "1", Content: "common word here"}},
		{ID: "2", Document: docset.Document{ID: "2", Content: "common word there"}},
		{ID: "3", Document: docset.Document{ID: "3", Content: "common word again"}},
	}
	idx := BuildBM25Index(entries, DefaultBM25Params())
	score := idx.Score("1", []string{"common"})
	assert.Less(t, score, 0.0, "a term present in every document should have negative IDF")
}

func TestVectorOnlyWhenHybridDisabled(t *testing.T) {
	index := ann.New(ann.DefaultParams(), rand.New(rand.NewSource(2)))
	require.NoError(t, index.Add("a", []float32{1, 0}))
	entries := []docset.Entry{{ID: "a", Document: docset.Document{ID: "a", Content: "irrelevant text"}, Vector: docset.Vector{Values: []float32{1, 0}}}}

	opts := Options{Limit: 1, VectorWeight: 1, KeywordWeight: 0, EnableHybrid: false}
	hits := HybridSearch(index, entries, []float32{1, 0}, "text", opts)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.0, hits[0].KeywordScore)
}

func TestEmptyStoreSearchReturnsEmpty(t *testing.T) {
	index := ann.New(ann.DefaultParams(), rand.New(rand.NewSource(3)))
	hits := HybridSearch(index, nil, []float32{1, 0}, "anything", DefaultOptions(5))
	assert.Empty(t, hits)
}
