package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// IngestionLog records completed ingestion batches for auditing and the
// collections listing. The log is advisory: a write failure never fails
// the ingestion that produced the entry.
type IngestionLog interface {
	// Record stores one batch entry.
	Record(ctx context.Context, entry domain.IngestionEntry) error

	// Collections aggregates recorded batches per collection,
	// most recently grown first.
	Collections(ctx context.Context) ([]domain.CollectionStats, error)

	// Close releases resources.
	Close() error
}
