// Package chunk splits cleaned document text into bounded, deduplicated
// passages carrying heading context, ready to become Documents in the
// vector store.
//
// Grounded on original_source/src/crawler/chunker.rs (quality filter, code
// detection, content-hash dedup, overlap enrichment) and
// original_source/src/vectordb/chunking.rs (the ChunkingStrategy enum this
// package's Strategy/Kind mirror), with the heading breadcrumb-stack
// construction adapted from the teacher's internal/chunk/markdown_chunker.go.
package chunk

import "sync"

// Chunk is one bounded passage of text produced by a Chunker.
type Chunk struct {
	Content        string
	Heading        string
	HeadingContext string
	HasCode        bool
	Position       int
	ContentHash    uint64
}

// Chunker splits text into Chunks according to its Strategy. It is stateful
// across calls: the seen-hash set persists for the Chunker's lifetime so
// repeated ingestion of overlapping sources doesn't duplicate content.
type Chunker struct {
	strategy Strategy

	mu   sync.Mutex
	seen map[uint64]struct{}
}

// New creates a Chunker with an empty dedup set.
func New(strategy Strategy) *Chunker {
	return &Chunker{strategy: strategy, seen: make(map[uint64]struct{})}
}

// NewWithSeenHashes creates a Chunker whose dedup set is seeded from a prior
// session (e.g. restored from the store's existing content hashes).
func NewWithSeenHashes(strategy Strategy, seed []uint64) *Chunker {
	c := New(strategy)
	for _, h := range seed {
		c.seen[h] = struct{}{}
	}
	return c
}

// Chunk splits text into an ordered list of Chunks, applying the quality
// filter, code detection, and deduplication uniformly across strategies, and
// overlap enrichment for the Semantic and Heading strategies.
func (c *Chunker) Chunk(text string) []Chunk {
	if text == "" {
		return nil
	}

	var raw []rawChunk
	switch c.strategy.Kind {
	case FixedOverlap:
		raw = chunkFixedOverlap(text, c.strategy.ChunkSize, c.strategy.Overlap)
	case Semantic:
		raw = chunkSemantic(text, c.strategy.MaxSize, c.strategy.MinSize)
	default:
		raw = chunkHeading(text, c.strategy.MaxSize, c.strategy.MinSize)
	}

	if c.strategy.Kind != FixedOverlap {
		raw = addOverlapEnrichment(raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	chunks := make([]Chunk, 0, len(raw))
	position := 0
	for _, r := range raw {
		if !isQualityContent(r.content) {
			continue
		}
		hash := contentHash(r.content)
		if _, dup := c.seen[hash]; dup {
			continue
		}
		c.seen[hash] = struct{}{}

		chunks = append(chunks, Chunk{
			Content:        r.content,
			Heading:        r.heading,
			HeadingContext: r.headingContext,
			HasCode:        containsCode(r.content),
			Position:       position,
			ContentHash:    hash,
		})
		position++
	}
	return chunks
}

// rawChunk is the strategy-internal representation before quality
// filtering, code detection, and dedup are applied.
type rawChunk struct {
	content        string
	heading        string
	headingContext string
}
