package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/apperrors"
	"github.com/coderag/docrag/internal/docset"
)

// Save writes the whole store to s.path atomically: the full JSON document
// is written to "<path>.tmp" and then renamed onto "<path>", so a process
// killed mid-write leaves the original file untouched. When quantization is
// enabled (SetQuantization), vectors are calibrated and round-tripped
// through quantize/dequantize before being written, so the persisted
// values are exactly what an 8-bit scalar store would reconstruct
// (spec.md §4.4's "each persisted vector can be reconstructed (lossily)").
func (s *Store) Save() error {
	var quantizer *ann.Quantizer
	if s.quantMethod != ann.QuantizeNone {
		vectors := make([][]float32, 0, len(s.order))
		for _, id := range s.order {
			if e, ok := s.entries[id]; ok {
				vectors = append(vectors, e.Vector.Values)
			}
		}
		quantizer = ann.Calibrate(s.quantMethod, vectors)
	}

	entries := make([]persistedEntry, 0, len(s.order))
	for _, id := range s.order {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		vec := e.Vector
		if quantizer != nil {
			vec = docset.Vector{Values: quantizer.Dequantize(quantizer.Quantize(vec.Values))}
		}
		entries = append(entries, persistedEntry{
			ID:        e.ID,
			Document:  e.Document,
			Vector:    vec,
			IndexedAt: e.IndexedAt.Unix(),
		})
	}

	file := persistedFile{
		Metadata: persistedMetadata{
			Version:       CurrentVersion,
			CreatedAt:     s.createdAt.Unix(),
			LastModified:  time.Now().Unix(),
			DocumentCount: len(entries),
		},
		Entries: entries,
	}
	if quantizer != nil {
		file.Quantizer = &persistedQuantizer{
			Method:    int(quantizer.Method),
			Dimension: quantizer.Dimension,
			MinValues: quantizer.MinValues,
			MaxValues: quantizer.MaxValues,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return apperrors.StoreIO("failed to marshal store", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.StoreIO("failed to create store directory", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return apperrors.StoreIO("failed to write temp store file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return apperrors.StoreIO("failed to rename temp store file into place", err)
	}
	return nil
}

// Load replaces the store's contents with what's persisted at s.path.
// Refuses to load a file whose metadata.version does not equal
// CurrentVersion. A missing file is not an error: Load leaves an empty
// store in place (first-run behavior).
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.StoreIO("failed to read store file", err)
	}

	var file persistedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return apperrors.StoreIO("failed to parse store file", err)
	}
	if file.Metadata.Version != CurrentVersion {
		return apperrors.New(apperrors.ErrCodeStoreVersion,
			fmt.Sprintf("store version %d does not match expected %d", file.Metadata.Version, CurrentVersion), nil)
	}

	entries := make(map[string]docset.Entry, len(file.Entries))
	order := make([]string, 0, len(file.Entries))
	dimension := s.dimension
	for _, pe := range file.Entries {
		entry := docset.Entry{
			ID:        pe.ID,
			Document:  pe.Document,
			Vector:    pe.Vector,
			IndexedAt: time.Unix(pe.IndexedAt, 0),
		}
		entries[pe.ID] = entry
		order = append(order, pe.ID)
		if dimension == 0 {
			dimension = entry.Vector.Dimension()
		}
	}

	s.entries = entries
	s.order = order
	s.dimension = dimension
	s.createdAt = time.Unix(file.Metadata.CreatedAt, 0)
	if file.Quantizer != nil {
		s.quantMethod = ann.QuantizationMethod(file.Quantizer.Method)
	} else {
		s.quantMethod = ann.QuantizeNone
	}
	return nil
}
