package ann

import "math"

// item is a scored graph node used in the beam-search frontier. seq is the
// node's insertion sequence, used to break distance ties in favor of the
// earlier-visited node (stable).
type item struct {
	id   string
	dist float64
	seq  int
}

func isNaNDist(d float64) bool { return math.IsNaN(d) }

// less reports whether a sorts strictly before b: lower distance first;
// NaN distances compare equal to anything (fall through to seq); ties break
// by lower seq (earlier-visited wins).
func less(a, b item) bool {
	if isNaNDist(a.dist) || isNaNDist(b.dist) {
		return a.seq < b.seq
	}
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

// minHeap is a binary min-heap of items ordered by less.
type minHeap []item

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// maxHeap is a binary max-heap (by less, reversed) used to keep the worst
// of the current best-ef candidates at the top for cheap eviction.
type maxHeap []item

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
