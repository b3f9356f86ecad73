// Package store implements the persistent, JSON-backed vector store: the
// exclusive keeper of all Entries. The ANN and BM25 indexes are derived
// structures rebuilt from this store's snapshot; they are never themselves
// the source of truth.
//
// Grounded on the persistence shape of the teacher's internal/store/hnsw.go
// (atomic tmp+rename save, version-gated load) and the exclusive-lock
// pattern of internal/embed/lock.go (repurposed here from the embedder's
// download lock to the store's cross-process write lock), realizing the
// exact JSON schema and purge semantics of spec.md §4.2/§6.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/apperrors"
	"github.com/coderag/docrag/internal/docset"
)

// Store is a persistent keyed collection of (Document, Vector) entries.
type Store struct {
	path      string
	dimension int

	flock *flock.Flock

	entries     map[string]docset.Entry
	order       []string // insertion order, preserved across save/load
	createdAt   time.Time
	quantMethod ann.QuantizationMethod
}

// New creates an empty store bound to path. dimension is the vector
// dimension all inserted entries must match; 0 means "take the dimension
// of the first insert."
func New(path string, dimension int) *Store {
	return &Store{
		path:      path,
		dimension: dimension,
		flock:     flock.New(path + ".lock"),
		entries:   make(map[string]docset.Entry),
		createdAt: time.Now(),
	}
}

// Dimension returns the store's established vector dimension (0 if empty).
func (s *Store) Dimension() int { return s.dimension }

// SetQuantization selects the scalar quantization mode applied at Save
// time, per spec.md §4.4. Calibration is recomputed from the current
// entries on every Save rather than carried across mutations.
func (s *Store) SetQuantization(method ann.QuantizationMethod) {
	s.quantMethod = method
}

// Lock acquires the store's exclusive cross-process lock, blocking until
// available. All mutators and readers should hold it for the duration of
// their operation, per spec.md §5.
func (s *Store) Lock() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.StoreIO("failed to create store directory", err)
	}
	if err := s.flock.Lock(); err != nil {
		return apperrors.StoreIO("failed to acquire store lock", err)
	}
	return nil
}

// Unlock releases the store lock.
func (s *Store) Unlock() error {
	return s.flock.Unlock()
}

// Add inserts a new entry. Fails if id collides with an existing entry or
// the vector's dimension disagrees with the store's established dimension.
func (s *Store) Add(doc docset.Document, vec docset.Vector) (string, error) {
	if _, exists := s.entries[doc.ID]; exists {
		return "", apperrors.New(apperrors.ErrCodeDuplicateID, fmt.Sprintf("id %q already exists", doc.ID), nil)
	}
	if s.dimension == 0 {
		s.dimension = vec.Dimension()
	} else if vec.Dimension() != s.dimension {
		return "", apperrors.New(apperrors.ErrCodeInvalidDimension,
			fmt.Sprintf("expected dimension %d, got %d", s.dimension, vec.Dimension()), nil)
	}

	entry := docset.Entry{
		ID:        doc.ID,
		Document:  doc,
		Vector:    vec,
		IndexedAt: time.Now(),
	}
	s.entries[doc.ID] = entry
	s.order = append(s.order, doc.ID)
	return doc.ID, nil
}

// Get returns the entry for id, if present.
func (s *Store) Get(id string) (docset.Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Entries returns a read-only, insertion-ordered view of all entries.
func (s *Store) Entries() []docset.Entry {
	out := make([]docset.Entry, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries currently stored.
func (s *Store) Count() int { return len(s.entries) }

// RemoveBySource deletes every entry whose Document.URL equals url,
// returning the count removed.
func (s *Store) RemoveBySource(url string) int {
	return s.removeWhere(func(e docset.Entry) bool { return e.Document.URL == url })
}

// RemoveByAge deletes every entry whose effective last-updated timestamp is
// older than now - days. If the subtraction would underflow, cutoff is
// treated as the Unix epoch.
func (s *Store) RemoveByAge(days int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -days)
	if cutoff.Before(time.Unix(0, 0)) {
		cutoff = time.Unix(0, 0)
	}
	return s.removeWhere(func(e docset.Entry) bool { return e.LastUpdated().Before(cutoff) })
}

// CountBySource reports how many entries would be removed by
// RemoveBySource(url), without mutating the store. Used for manage's
// dry_run mode.
func (s *Store) CountBySource(url string) int {
	return s.countWhere(func(e docset.Entry) bool { return e.Document.URL == url })
}

// CountByAge reports how many entries would be removed by
// RemoveByAge(days, now), without mutating the store. Used for manage's
// dry_run mode.
func (s *Store) CountByAge(days int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -days)
	if cutoff.Before(time.Unix(0, 0)) {
		cutoff = time.Unix(0, 0)
	}
	return s.countWhere(func(e docset.Entry) bool { return e.LastUpdated().Before(cutoff) })
}

func (s *Store) countWhere(match func(docset.Entry) bool) int {
	var count int
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok && match(e) {
			count++
		}
	}
	return count
}

func (s *Store) removeWhere(match func(docset.Entry) bool) int {
	var removed int
	newOrder := s.order[:0:0]
	for _, id := range s.order {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		if match(e) {
			delete(s.entries, id)
			removed++
			continue
		}
		newOrder = append(newOrder, id)
	}
	s.order = newOrder
	return removed
}

// SourceCounts returns the number of documents per source URL.
func (s *Store) SourceCounts() map[string]int {
	counts := make(map[string]int)
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			counts[e.Document.URL]++
		}
	}
	return counts
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.entries = make(map[string]docset.Entry)
	s.order = nil
}
