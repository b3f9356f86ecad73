package store

import "github.com/coderag/docrag/internal/docset"

// CurrentVersion is the persistence format version. Load refuses a file
// whose metadata.version differs.
const CurrentVersion = 1

// persistedMetadata is the store's top-level metadata block.
type persistedMetadata struct {
	Version        int   `json:"version"`
	CreatedAt      int64 `json:"created_at"`
	LastModified   int64 `json:"last_modified"`
	DocumentCount  int   `json:"document_count"`
}

// persistedEntry mirrors docset.Entry for JSON round-tripping.
type persistedEntry struct {
	ID        string          `json:"id"`
	Document  docset.Document `json:"document"`
	Vector    docset.Vector   `json:"vector"`
	IndexedAt int64           `json:"indexed_at"`
}

// persistedQuantizer is the optional quantizer calibration block.
type persistedQuantizer struct {
	Method    int       `json:"method"`
	Dimension int       `json:"dimension"`
	MinValues []float32 `json:"min_values,omitempty"`
	MaxValues []float32 `json:"max_values,omitempty"`
}

// persistedFile is the whole-file JSON shape written to disk.
type persistedFile struct {
	Metadata  persistedMetadata   `json:"metadata"`
	Entries   []persistedEntry    `json:"entries"`
	Quantizer *persistedQuantizer `json:"quantizer,omitempty"`
}
