// Package ann implements a hierarchical navigable small-world graph
// (HNSW-style) approximate-nearest-neighbor index over fixed-dimension
// float32 vectors, plus an optional scalar quantizer for compressed
// persistence.
//
// Grounded line-for-line on original_source/src/vectordb/indexing.rs (the
// Rust HnswIndex/HnswParams/connect_node/search_neighbors implementation);
// the persistence shape (atomic save, separate id-map metadata) is adapted
// from the teacher's internal/store/hnsw.go, which wraps coder/hnsw for the
// same role but cannot express this package's exact, testable level
// assignment and beam-search semantics (see DESIGN.md).
package ann

// Metric selects the distance function.
type Metric int

const (
	Cosine Metric = iota
	L2
)

// Params configures the graph. Defaults match the reference implementation.
type Params struct {
	M              int // max neighbors per level above 0
	M0             int // max neighbors at level 0
	EfConstruction int // beam width during insert
	EfSearch       int // beam width at query time
	Metric         Metric
	ScaleFactor    float64 // level-assignment scale s
	MaxLevel       int     // hard cap on assigned level
}

// DefaultParams returns the reference HNSW configuration.
func DefaultParams() Params {
	return Params{
		M:              16,
		M0:             32,
		EfConstruction: 100,
		EfSearch:       50,
		Metric:         Cosine,
		ScaleFactor:    2.0,
		MaxLevel:       10,
	}
}
