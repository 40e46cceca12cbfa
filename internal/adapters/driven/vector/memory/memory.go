// Package memory provides an in-memory vector index with brute-force
// cosine search. Useful for tests and for running without Qdrant.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// collection holds records keyed by ID, preserving upsert semantics.
type collection struct {
	dim     int
	records map[string]domain.IndexRecord
}

// Index is an in-memory vector index.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if missing. An existing
// collection with a different dimension fails with ErrDimensionMismatch.
func (x *Index) EnsureCollection(_ context.Context, name string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dim)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if c, ok := x.collections[name]; ok {
		if c.dim != dim {
			return fmt.Errorf("%w: collection %q has dimension %d, want %d",
				domain.ErrDimensionMismatch, name, c.dim, dim)
		}
		return nil
	}

	x.collections[name] = &collection{
		dim:     dim,
		records: make(map[string]domain.IndexRecord),
	}
	return nil
}

// Upsert writes records into the collection, replacing records with the
// same ID.
func (x *Index) Upsert(_ context.Context, name string, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	c, ok := x.collections[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	for i, r := range records {
		if len(r.Vector) != c.dim {
			return fmt.Errorf("%w: record %d has dimension %d, want %d",
				domain.ErrDimensionMismatch, i, len(r.Vector), c.dim)
		}
	}
	for _, r := range records {
		c.records[r.ID] = r
	}
	return nil
}

// Search returns the k records most similar to the query by cosine
// similarity, best first.
func (x *Index) Search(_ context.Context, name string, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	c, ok := x.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			domain.ErrDimensionMismatch, len(query), c.dim)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(c.records))
	for _, r := range c.records {
		chunks = append(chunks, domain.RetrievedChunk{
			Text: r.Payload.Text,
			Metadata: domain.Metadata{
				Source: r.Payload.Source,
				Page:   r.Payload.Page,
			},
			Score: cosine(query, r.Vector),
		})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

// Count returns the number of records in the collection, zero if the
// collection does not exist.
func (x *Index) Count(name string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	c, ok := x.collections[name]
	if !ok {
		return 0
	}
	return len(c.records)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
