// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the ingestion and chat pipelines to function:
//
//   - Normaliser: Turns raw uploaded bytes into documents
//   - NormaliserRegistry: Selects the normaliser for an input kind
//   - PostProcessorPipeline: Produces chunks from a document
//   - EmbeddingService: Converts chunk text into vectors
//   - VectorIndex: Persists vectors and answers similarity search
//   - GenerationService: Streams a generated answer
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IngestionLog: Audit trail of ingestion batches. Without it, the
//     collections listing is unavailable but indexing is unaffected.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
