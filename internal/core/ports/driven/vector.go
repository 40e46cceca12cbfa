package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// VectorIndex persists embedding vectors in named collections and answers
// k-nearest-neighbour similarity search. Collections are long-lived external
// resources: created lazily on first ingestion, grown by repeated upserts,
// never implicitly deleted by this core.
//
// Implementations must be safe for concurrent search and concurrent upsert
// from multiple callers; the core holds no lock around these calls.
type VectorIndex interface {
	// EnsureCollection creates the collection if absent and verifies the
	// vector dimension if present. Idempotent. Returns
	// domain.ErrDimensionMismatch when an existing collection was created
	// with a different dimension.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert inserts or replaces records by id. At-least-once semantics:
	// duplicate content under fresh ids is stored again, never deduplicated.
	Upsert(ctx context.Context, name string, records []domain.IndexRecord) error

	// Search returns the k records most similar to the query vector,
	// highest score first. Returns domain.ErrCollectionNotFound when the
	// named collection does not exist.
	Search(ctx context.Context, name string, query []float32, k int) ([]domain.RetrievedChunk, error)

	// Close releases resources.
	Close() error
}
