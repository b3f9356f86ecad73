package ann

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Result is one scored hit returned by Search.
type Result struct {
	ID    string
	Score float64
}

// Index is a hierarchical navigable small-world graph over fixed-dimension
// vectors. All mutation and search happens under a single mutex, mirroring
// the store's single-exclusive-lock policy (spec §5): there is no separate
// read path that bypasses it.
type Index struct {
	mu sync.RWMutex

	params    Params
	dimension int

	nodes      map[string]*node
	entryPoint string
	maxLevel   int
	nextSeq    int

	rng *rand.Rand
}

// New creates an empty index. rng should be seeded deterministically in
// tests to keep level assignment (and therefore graph shape) reproducible.
func New(params Params, rng *rand.Rand) *Index {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Index{
		params: params,
		nodes:  make(map[string]*node),
		rng:    rng,
	}
}

// Count returns the number of nodes currently in the index.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

// Contains reports whether id is present.
func (idx *Index) Contains(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.nodes[id]
	return ok
}

// randomLevel draws the level per the reference formula:
// floor(-ln(u) * s), capped at MaxLevel; u==0 is special-cased to avoid
// ln(0).
func (idx *Index) randomLevel() int {
	u := idx.rng.Float64()
	if u == 0 {
		return 0
	}
	level := int(math.Floor(-math.Log(u) * idx.params.ScaleFactor))
	if level > idx.params.MaxLevel {
		level = idx.params.MaxLevel
	}
	if level < 0 {
		level = 0
	}
	return level
}

// Add inserts a new vector under id. It is an error to reuse an id or to
// insert a vector whose dimension disagrees with the index's established
// dimension.
func (idx *Index) Add(id string, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.nodes[id]; exists {
		return fmt.Errorf("ann: duplicate id %q", id)
	}
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("ann: dimension mismatch: want %d got %d", idx.dimension, len(vector))
	}

	level := idx.randomLevel()
	seq := idx.nextSeq
	idx.nextSeq++
	n := newNode(id, vector, level, seq)
	idx.nodes[id] = n

	if idx.entryPoint == "" {
		idx.entryPoint = id
		idx.maxLevel = level
		return nil
	}

	idx.connectNode(n, level)

	if level > idx.maxLevel {
		idx.entryPoint = id
		idx.maxLevel = level
	}
	return nil
}

// connectNode wires a freshly-created node into the graph: greedy descent
// from the entry point down to level+1, then beam-search-and-connect from
// level down to 0.
func (idx *Index) connectNode(n *node, level int) {
	current := idx.nodes[idx.entryPoint]
	curDist := distance(idx.params.Metric, n.vector, current.vector)

	for l := idx.maxLevel; l > level; l-- {
		current, curDist = idx.greedyDescend(current, curDist, n.vector, l)
	}

	for l := min(level, idx.maxLevel); l >= 0; l-- {
		ef := idx.params.EfConstruction
		if l == 0 {
			ef *= 2
		}
		candidates := idx.searchLayer(current, n.vector, ef, l)

		cap := idx.params.M
		if l == 0 {
			cap = idx.params.M0
		}
		selected := candidates
		if len(selected) > cap {
			selected = selected[:cap]
		}

		for _, c := range selected {
			idx.ensureLevel(n, l)
			n.neighbors[l] = append(n.neighbors[l], c.id)

			neighbor := idx.nodes[c.id]
			idx.ensureLevel(neighbor, l)
			neighbor.neighbors[l] = append(neighbor.neighbors[l], n.id)
			idx.repairOverflow(neighbor, l, cap)
		}

		if len(selected) > 0 {
			current = idx.nodes[selected[0].id]
		}
	}
}

func (idx *Index) ensureLevel(n *node, level int) {
	for len(n.neighbors) <= level {
		n.neighbors = append(n.neighbors, nil)
	}
}

// repairOverflow re-selects the nearest cap neighbors (by distance to n's
// own vector) among n's current neighbor list when it exceeds the level's
// cap, matching the reference's heuristic re-selection.
func (idx *Index) repairOverflow(n *node, level, cap int) {
	if len(n.neighbors[level]) <= cap {
		return
	}
	type scored struct {
		id   string
		dist float64
	}
	candidates := make([]scored, 0, len(n.neighbors[level]))
	seen := make(map[string]struct{})
	for _, id := range n.neighbors[level] {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		other := idx.nodes[id]
		if other == nil {
			continue
		}
		candidates = append(candidates, scored{id, distance(idx.params.Metric, n.vector, other.vector)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > cap {
		candidates = candidates[:cap]
	}
	keep := make([]string, len(candidates))
	for i, c := range candidates {
		keep[i] = c.id
	}
	n.neighbors[level] = keep
}

// greedyDescend repeatedly moves to the neighbor at level l whose distance
// to target improves on the current best, until no neighbor improves.
func (idx *Index) greedyDescend(current *node, currentDist float64, target []float32, level int) (*node, float64) {
	improved := true
	for improved {
		improved = false
		if level >= len(current.neighbors) {
			continue
		}
		for _, nid := range current.neighbors[level] {
			cand := idx.nodes[nid]
			if cand == nil {
				continue
			}
			d := distance(idx.params.Metric, target, cand.vector)
			if d < currentDist {
				current, currentDist = cand, d
				improved = true
			}
		}
	}
	return current, currentDist
}

// searchLayer runs a beam search of width ef at the given level, starting
// from entry, returning candidates sorted by ascending distance.
func (idx *Index) searchLayer(entry *node, target []float32, ef, level int) []item {
	visited := map[string]struct{}{entry.id: {}}

	entryDist := distance(idx.params.Metric, target, entry.vector)
	candidates := &minHeap{{id: entry.id, dist: entryDist, seq: entry.seq}}
	heap.Init(candidates)

	results := &maxHeap{{id: entry.id, dist: entryDist, seq: entry.seq}}
	heap.Init(results)

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(item)

		if results.Len() >= ef {
			worst := (*results)[0]
			if !less(c, worst) && c.id != worst.id {
				break
			}
		}

		cn := idx.nodes[c.id]
		if cn == nil || level >= len(cn.neighbors) {
			continue
		}
		for _, nid := range cn.neighbors[level] {
			if _, seen := visited[nid]; seen {
				continue
			}
			visited[nid] = struct{}{}
			nn := idx.nodes[nid]
			if nn == nil {
				continue
			}
			d := distance(idx.params.Metric, target, nn.vector)
			it := item{id: nid, dist: d, seq: nn.seq}

			if results.Len() < ef {
				heap.Push(candidates, it)
				heap.Push(results, it)
			} else if less(it, (*results)[0]) {
				heap.Push(candidates, it)
				heap.Pop(results)
				heap.Push(results, it)
			}
		}
	}

	out := make([]item, results.Len())
	copy(out, *results)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Search returns up to k nearest entries to query, scored by the
// configured metric. Effective beam width is max(EfSearch, k).
func (idx *Index) Search(query []float32, k int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.entryPoint == "" || k <= 0 {
		return nil
	}

	ef := idx.params.EfSearch
	if k > ef {
		ef = k
	}

	current := idx.nodes[idx.entryPoint]
	curDist := distance(idx.params.Metric, query, current.vector)
	for l := idx.maxLevel; l >= 1; l-- {
		current, curDist = idx.greedyDescend(current, curDist, query, l)
	}

	candidates := idx.searchLayer(current, query, ef, 0)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: c.id, Score: distanceToScore(idx.params.Metric, c.dist)}
	}
	return out
}

// Rebuild discards the current graph and reinserts the given (id, vector)
// pairs in order, matching the "rebuild from surviving entries" bulk
// mutation policy after remove_by_source / remove_by_age.
func (idx *Index) Rebuild(ids []string, vectors [][]float32) error {
	idx.mu.Lock()
	idx.nodes = make(map[string]*node)
	idx.entryPoint = ""
	idx.maxLevel = 0
	idx.nextSeq = 0
	idx.dimension = 0
	idx.mu.Unlock()

	for i, id := range ids {
		if err := idx.Add(id, vectors[i]); err != nil {
			return err
		}
	}
	return nil
}
