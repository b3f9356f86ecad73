// Package search implements the BM25 keyword index and the hybrid
// (vector + keyword) fusion searcher.
//
// Grounded on original_source/src/vectordb/hybrid_search.rs, which contains
// both the exact BM25Index and hybrid_search this package reimplements, and
// cross-checked against that file's own test_hybrid_search unit test
// (spec.md scenario S2). The teacher's internal/search/fusion.go
// (Reciprocal Rank Fusion) and internal/store/bm25.go (bleve-backed index)
// are style references only — the scoring formula here follows the spec
// and the Rust original exactly, which neither RRF nor a bleve black box
// can reproduce (see DESIGN.md).
package search

import (
	"math"
	"strings"

	"github.com/coderag/docrag/internal/docset"
)

// BM25Params are the tunable constants of the Okapi BM25 formula.
type BM25Params struct {
	K1 float64
	B  float64
}

// DefaultBM25Params returns the reference k1=1.2, b=0.75.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// BM25Index is a keyword index built fresh from a snapshot of entries for
// one query; it is never persisted (spec.md §4.5/§5).
type BM25Index struct {
	params BM25Params

	docFreq     map[string]int
	termFreq    map[string]map[string]int // docID -> token -> count
	docLength   map[string]int
	docOrder    []string
	avgDocLen   float64
	docCount    int
}

// BuildBM25Index indexes entries' Document.Content for keyword search.
func BuildBM25Index(entries []docset.Entry, params BM25Params) *BM25Index {
	idx := &BM25Index{
		params:    params,
		docFreq:   make(map[string]int),
		termFreq:  make(map[string]map[string]int),
		docLength: make(map[string]int),
	}

	var totalLen int
	for _, e := range entries {
		tokens := tokenize(e.Document.Content)
		idx.docOrder = append(idx.docOrder, e.ID)
		idx.docLength[e.ID] = len(tokens)
		totalLen += len(tokens)

		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		idx.termFreq[e.ID] = counts
		for tok := range counts {
			idx.docFreq[tok]++
		}
	}

	idx.docCount = len(entries)
	if idx.docCount > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.docCount)
	}
	return idx
}

// tokenize lowercases, splits on whitespace, strips surrounding
// non-alphanumeric characters, and drops empties.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.TrimFunc(f, func(r rune) bool {
			return !isAlphanumeric(r)
		})
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Score computes the BM25 score of docID against the given query tokens.
// A token absent from every document contributes zero; idf is allowed to
// go negative for very common terms, with no floor.
func (idx *BM25Index) Score(docID string, queryTokens []string) float64 {
	termCounts, ok := idx.termFreq[docID]
	if !ok {
		return 0
	}
	docLen := float64(idx.docLength[docID])

	var score float64
	for _, t := range queryTokens {
		tf := float64(termCounts[t])
		if tf == 0 {
			continue
		}
		df := idx.docFreq[t]
		idf := math.Log((float64(idx.docCount)-float64(df)+0.5)/(float64(df)+0.5))

		denom := tf + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgDocLen)
		score += idf * (tf * (idx.params.K1 + 1)) / denom
	}
	return score
}

// Search scores every indexed document against queryText and returns the
// top limit ids with nonzero-token overlap, sorted by descending score.
func (idx *BM25Index) Search(queryText string, limit int) []ScoredID {
	tokens := tokenize(queryText)
	var results []ScoredID
	for _, id := range idx.docOrder {
		s := idx.Score(id, tokens)
		if s == 0 {
			continue
		}
		results = append(results, ScoredID{ID: id, Score: s})
	}
	sortScoredIDsDesc(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// ScoredID pairs an entry id with a raw score.
type ScoredID struct {
	ID    string
	Score float64
}

func sortScoredIDsDesc(results []ScoredID) {
	// simple insertion sort is fine: candidate lists here are bounded by a
	// few times the caller's limit, never the full corpus.
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j].Score > results[j-1].Score {
			results[j], results[j-1] = results[j-1], results[j]
			j--
		}
	}
}
