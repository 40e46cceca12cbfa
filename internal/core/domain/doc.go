// Package domain defines the core business entities for ragd.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawInput: Opaque uploaded bytes before normalisation
//   - Document: A normalised logical unit of text (a PDF page, one inline text)
//   - Chunk: A bounded passage of a document, the unit of embedding
//   - IndexRecord: The unit persisted in the vector index
//   - RetrievedChunk: A scored passage returned by similarity search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
