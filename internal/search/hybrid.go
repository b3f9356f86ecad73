package search

import (
	"sort"
	"strings"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/docset"
)

// Filters narrow candidates before ranking.
type Filters struct {
	SourceSubstring string
	ContentType     docset.ContentType // empty = no filter
	MinVectorScore  float64
}

func (f Filters) matches(e docset.Entry, vectorScore float64) bool {
	if f.SourceSubstring != "" && !strings.Contains(e.Document.URL, f.SourceSubstring) {
		return false
	}
	if f.ContentType != "" && e.Document.Metadata.ContentType != f.ContentType {
		return false
	}
	if vectorScore < f.MinVectorScore {
		return false
	}
	return true
}

// Options configures one hybrid_search call.
type Options struct {
	Limit         int
	VectorWeight  float64
	KeywordWeight float64
	EnableHybrid  bool
	BM25          BM25Params
	Filters       Filters
}

// DefaultOptions returns the reference fusion weights (w_v=0.7, w_k=0.3).
func DefaultOptions(limit int) Options {
	return Options{
		Limit:         limit,
		VectorWeight:  0.7,
		KeywordWeight: 0.3,
		EnableHybrid:  true,
		BM25:          DefaultBM25Params(),
	}
}

// Hit is one ranked hybrid search result.
type Hit struct {
	Document      docset.Document
	VectorScore   float64
	KeywordScore  float64
	CombinedScore float64
}

// HybridSearch pulls the top 3*limit candidates from both the vector index
// and a freshly-built BM25 index over entries, fuses them by weighted sum,
// applies filters, and returns the top Limit by combined score.
//
// Grounded on original_source/src/vectordb/hybrid_search.rs::hybrid_search.
func HybridSearch(index *ann.Index, entries []docset.Entry, queryVec []float32, queryText string, opts Options) []Hit {
	if opts.Limit <= 0 {
		return nil
	}

	byID := make(map[string]docset.Entry, len(entries))
	insertionOrder := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = e
		insertionOrder[e.ID] = i
	}

	pullLimit := opts.Limit * 3

	vectorScores := make(map[string]float64)
	for _, r := range index.Search(queryVec, pullLimit) {
		vectorScores[r.ID] = r.Score
	}

	keywordScores := make(map[string]float64)
	if opts.EnableHybrid {
		bm25 := BuildBM25Index(entries, opts.BM25)
		for _, r := range bm25.Search(queryText, pullLimit) {
			keywordScores[r.ID] = r.Score
		}
	}

	candidateSet := make(map[string]struct{}, len(vectorScores)+len(keywordScores))
	for id := range vectorScores {
		candidateSet[id] = struct{}{}
	}
	for id := range keywordScores {
		candidateSet[id] = struct{}{}
	}

	type scoredCandidate struct {
		hit   Hit
		order int
	}
	candidates := make([]scoredCandidate, 0, len(candidateSet))

	for id := range candidateSet {
		entry, ok := byID[id]
		if !ok {
			continue
		}

		vScore := vectorScores[id]
		kScore := keywordScores[id]

		if !opts.Filters.matches(entry, vScore) {
			continue
		}

		var combined float64
		normalizedKeyword := normalizeKeywordScore(kScore)
		if opts.EnableHybrid {
			combined = opts.VectorWeight*vScore + opts.KeywordWeight*normalizedKeyword
		} else {
			combined = vScore
			normalizedKeyword = 0
			kScore = 0
		}

		candidates = append(candidates, scoredCandidate{
			hit: Hit{
				Document:      entry.Document,
				VectorScore:   vScore,
				KeywordScore:  kScore,
				CombinedScore: combined,
			},
			order: insertionOrder[id],
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.hit.CombinedScore != b.hit.CombinedScore {
			return a.hit.CombinedScore > b.hit.CombinedScore
		}
		if a.hit.VectorScore != b.hit.VectorScore {
			return a.hit.VectorScore > b.hit.VectorScore
		}
		return a.order < b.order
	})

	// Bound the intermediate sorted list to 2*limit before final truncation,
	// matching the reference's bounded-heap intermediate step.
	if len(candidates) > opts.Limit*2 {
		candidates = candidates[:opts.Limit*2]
	}
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	out := make([]Hit, len(candidates))
	for i, c := range candidates {
		out[i] = c.hit
	}
	return out
}

// normalizeKeywordScore maps a raw (possibly negative) BM25 score into
// roughly [0,1] via k/(1+k), capped at 1.0 from above (matching the
// reference's `.min(1.0)`; no lower floor is applied).
func normalizeKeywordScore(k float64) float64 {
	if k == 0 {
		return 0
	}
	norm := k / (1 + k)
	if norm > 1.0 {
		return 1.0
	}
	return norm
}
