package domain

import "time"

// IngestReport summarises one ingestion call. It is always returned,
// even when a late stage failed, so the caller can see how far the
// pipeline got.
type IngestReport struct {
	// Collection is the target collection name.
	Collection string `json:"collection"`

	// Documents is the number of normalised documents.
	Documents int `json:"documentsFound"`

	// Chunks is the number of chunks produced.
	Chunks int `json:"chunksIndexed"`

	// RecordsUpserted is the number of records written to the vector
	// index. Zero when the upsert stage did not run.
	RecordsUpserted int `json:"recordsUpserted"`
}

// IngestionEntry is the audit record of one completed ingestion batch.
type IngestionEntry struct {
	// ID is the unique batch identifier.
	ID string

	// Collection is the target collection name.
	Collection string

	// Documents is the number of documents in the batch.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// Sources are the source names of the batch inputs.
	Sources []string

	// CreatedAt is when the batch completed.
	CreatedAt time.Time
}

// CollectionStats aggregates the ingestion history of one collection.
type CollectionStats struct {
	// Collection is the collection name.
	Collection string `json:"collection"`

	// Batches is the number of ingestion calls recorded.
	Batches int `json:"batches"`

	// Documents is the total documents ingested.
	Documents int `json:"documents"`

	// Chunks is the total chunks indexed.
	Chunks int `json:"chunks"`

	// LastIngestedAt is when the collection last grew.
	LastIngestedAt time.Time `json:"lastIngestedAt"`
}
