package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input: an unsupported
	// encoding, a missing collection name, or a bad chunking configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required backing service has no
	// configuration. Requests are rejected before any processing begins.
	ErrNotConfigured = errors.New("not configured")

	// ErrEmptyInput indicates normalisation and chunking produced nothing
	// to index. The pipeline fails fast before calling the embedding service.
	ErrEmptyInput = errors.New("no content to index")

	// ErrEmbedding indicates the embedding call failed or returned
	// malformed output. The core never retries; retry policy belongs
	// to the caller.
	ErrEmbedding = errors.New("embedding service failed")

	// ErrDimensionMismatch indicates a vector dimension inconsistent with
	// an existing collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollectionNotFound indicates a search against a collection that
	// has never been populated. Chat downgrades this to "no context".
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrGeneration indicates the streaming generation call failed.
	ErrGeneration = errors.New("generation service failed")

	// ErrTimeout indicates an external call exceeded its configured bound.
	// Reported distinctly, never conflated with a service-level error.
	ErrTimeout = errors.New("external call timed out")
)

// ErrorKind returns a machine-readable kind for a pipeline error,
// or the empty string for errors that carry no domain sentinel.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrEmbedding):
		return "embedding_failed"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrCollectionNotFound):
		return "collection_not_found"
	case errors.Is(err, ErrGeneration):
		return "generation_failed"
	default:
		return ""
	}
}
