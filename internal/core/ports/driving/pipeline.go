package driving

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// Ingestor runs the one-shot indexing pipeline: normalise, chunk, embed,
// upsert. Concurrent calls targeting the same collection are safe and
// independent.
type Ingestor interface {
	// Ingest indexes the inputs into the named collection. The collection
	// name is required; there is no implicit default at ingestion time.
	// The returned report is non-nil whenever processing started, so the
	// caller can see how far the pipeline got before an error.
	Ingest(ctx context.Context, inputs []domain.RawInput, collection string) (*domain.IngestReport, error)
}

// Retriever answers similarity queries against a collection.
type Retriever interface {
	// Retrieve embeds the query and returns up to k passages, most
	// similar first. A k of zero or less selects the default.
	// Returns domain.ErrCollectionNotFound for a collection that has
	// never been populated.
	Retrieve(ctx context.Context, query, collection string, k int) ([]domain.RetrievedChunk, error)
}

// ChatStreamer answers a message with a streamed, retrieval-augmented
// generation.
type ChatStreamer interface {
	// StreamAnswer retrieves context for the message, invokes the
	// generation model, and returns a channel of answer fragments. The
	// channel is closed at end of stream. A missing collection degrades
	// to a no-context answer rather than failing. Cancelling ctx stops
	// the generation; fragments already emitted are not retracted.
	StreamAnswer(ctx context.Context, message, collection string) (<-chan domain.StreamChunk, error)
}
