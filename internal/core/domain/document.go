package domain

// InputKind identifies the encoding of a raw uploaded input.
type InputKind int

const (
	// KindText is plain UTF-8 text.
	KindText InputKind = iota

	// KindPDF is a PDF byte stream.
	KindPDF
)

// String returns a human-readable name for the input kind.
func (k InputKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Source sentinels recorded in document metadata for inputs that do not
// carry a filename of their own.
const (
	// InlineTextSource tags plain text submitted through a form field.
	InlineTextSource = "inline-text"

	// JSONTextSource tags plain text submitted in a JSON request body.
	JSONTextSource = "json-text"
)

// RawInput represents one uploaded input before normalisation.
// It is consumed exactly once by the ingestion pipeline and never persisted.
type RawInput struct {
	// Kind is the input encoding (PDF or plain text).
	Kind InputKind

	// SourceName is the original filename for file uploads.
	// Empty for inline text; the normaliser substitutes a sentinel.
	SourceName string

	// Content is the raw bytes.
	Content []byte
}

// Metadata is the provenance carried from a document into every chunk
// derived from it.
type Metadata struct {
	// Source is the original filename or an inline-text sentinel.
	Source string `json:"source"`

	// Page is the 1-based PDF page number. Zero when the document
	// did not come from a paginated source.
	Page int `json:"page,omitempty"`
}

// Document is one normalised logical unit of text: a single PDF page,
// or one inline text block.
type Document struct {
	// PageContent is the full text of the unit.
	PageContent string

	// Metadata records where the text came from.
	Metadata Metadata
}

// Chunk is a bounded-size passage of a document, the unit of embedding
// and retrieval. Chunks within one document are ordered and overlap their
// neighbours by a configured number of characters.
type Chunk struct {
	// Text is the passage content.
	Text string

	// Metadata is inherited unchanged from the parent document.
	Metadata Metadata

	// Index is the zero-based position within the parent document.
	Index int
}

// RecordPayload is the retrievable content stored alongside a vector.
type RecordPayload struct {
	// Text is the chunk text.
	Text string `json:"text"`

	// Source is the chunk's document source.
	Source string `json:"source"`

	// Page is the chunk's document page, zero when not paginated.
	Page int `json:"page,omitempty"`

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`
}

// IndexRecord is the unit persisted in the vector index, keyed within
// a named collection. Record ids are random, never derived from collection
// state, so concurrent ingestion calls cannot collide.
type IndexRecord struct {
	// ID is the unique record identifier.
	ID string

	// Vector is the embedding of the payload text.
	Vector []float32

	// Payload is the retrievable content.
	Payload RecordPayload
}

// RetrievedChunk is one scored passage returned by similarity search.
type RetrievedChunk struct {
	// Text is the passage content.
	Text string `json:"text"`

	// Metadata records where the passage came from.
	Metadata Metadata `json:"metadata"`

	// Score is the similarity to the query, higher is more similar.
	Score float64 `json:"score"`
}
