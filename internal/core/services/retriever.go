package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultTopK is the number of chunks returned when the caller does not
// specify a limit.
const DefaultTopK = 4

// RetrievalService embeds a query and returns the most similar chunks
// from a collection.
type RetrievalService struct {
	embeddings driven.EmbeddingService
	vectors    driven.VectorIndex
}

// NewRetrievalService creates a new retrieval service.
// Both parameters may be nil when the server runs unconfigured;
// Retrieve then fails with ErrNotConfigured.
func NewRetrievalService(embeddings driven.EmbeddingService, vectors driven.VectorIndex) *RetrievalService {
	return &RetrievalService{
		embeddings: embeddings,
		vectors:    vectors,
	}
}

// Retrieve returns the k chunks most similar to the query, ordered by
// descending score. A non-positive k uses DefaultTopK.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query, collection string, k int,
) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	collection = strings.TrimSpace(collection)
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}
	if s.embeddings == nil {
		return nil, fmt.Errorf("%w: embedding service unavailable", domain.ErrNotConfigured)
	}
	if s.vectors == nil {
		return nil, fmt.Errorf("%w: vector index unavailable", domain.ErrNotConfigured)
	}

	if k <= 0 {
		k = DefaultTopK
	}
	logger.Debug("Retrieving top %d chunks from %q", k, collection)

	vector, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.vectors.Search(ctx, collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search collection %q: %w", collection, err)
	}

	logger.Debug("Retrieved %d chunks", len(chunks))
	return chunks, nil
}
