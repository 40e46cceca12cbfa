package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// maxCollectionNameBytes is the longest collection name accepted.
const maxCollectionNameBytes = 255

// IngestionService turns raw inputs into indexed vector records.
// It normalises inputs into documents, chunks them, embeds the chunks
// in batches and upserts the resulting records into the vector index.
type IngestionService struct {
	registry   driven.NormaliserRegistry
	pipeline   driven.PostProcessorPipeline
	embeddings driven.EmbeddingService
	vectors    driven.VectorIndex
	ingestLog  driven.IngestionLog
}

// NewIngestionService creates a new ingestion service.
// The embeddings and vectors parameters may be nil when the server runs
// unconfigured; Ingest then fails with ErrNotConfigured.
// The ingestLog parameter is optional.
func NewIngestionService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embeddings driven.EmbeddingService,
	vectors driven.VectorIndex,
) *IngestionService {
	return &IngestionService{
		registry:   registry,
		pipeline:   pipeline,
		embeddings: embeddings,
		vectors:    vectors,
	}
}

// SetIngestionLog sets the optional ingestion history log.
func (s *IngestionService) SetIngestionLog(log driven.IngestionLog) {
	s.ingestLog = log
}

// Ingest runs the full pipeline for the given inputs and reports what
// was indexed. Inputs that normalise to nothing contribute no documents
// but do not fail the batch.
func (s *IngestionService) Ingest(
	ctx context.Context, inputs []domain.RawInput, collection string,
) (*domain.IngestReport, error) {
	logger.Section("Ingestion")

	collection = strings.TrimSpace(collection)
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs provided", domain.ErrInvalidInput)
	}
	if s.embeddings == nil {
		return nil, fmt.Errorf("%w: embedding service unavailable", domain.ErrNotConfigured)
	}
	if s.vectors == nil {
		return nil, fmt.Errorf("%w: vector index unavailable", domain.ErrNotConfigured)
	}

	logger.Debug("Collection: %q, inputs: %d", collection, len(inputs))

	// From here on the report is always returned, even on failure, so
	// the caller can see how far the pipeline got.
	report := &domain.IngestReport{Collection: collection}

	docs, sources, err := s.normalise(ctx, inputs)
	if err != nil {
		return report, err
	}
	report.Documents = len(docs)
	logger.Debug("Normalised %d documents", len(docs))

	var chunks []domain.Chunk
	for i := range docs {
		docChunks, err := s.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return report, fmt.Errorf("chunk document %q: %w", docs[i].Metadata.Source, err)
		}
		chunks = append(chunks, docChunks...)
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: inputs produced no indexable text", domain.ErrEmptyInput)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embeddings.EmbedBatch(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return report, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	if err := s.vectors.EnsureCollection(ctx, collection, dim); err != nil {
		return report, fmt.Errorf("ensure collection %q: %w", collection, err)
	}

	records := make([]domain.IndexRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.IndexRecord{
			ID:     uuid.New().String(),
			Vector: vectors[i],
			Payload: domain.RecordPayload{
				Text:       c.Text,
				Source:     c.Metadata.Source,
				Page:       c.Metadata.Page,
				ChunkIndex: c.Index,
			},
		}
	}

	if err := s.vectors.Upsert(ctx, collection, records); err != nil {
		return report, fmt.Errorf("upsert records: %w", err)
	}
	report.RecordsUpserted = len(records)

	s.recordHistory(ctx, report, sources)

	logger.Info("Indexed %d chunks from %d documents into %q",
		report.Chunks, report.Documents, collection)
	return report, nil
}

// normalise converts every input into documents, collecting the distinct
// source names in first-seen order.
func (s *IngestionService) normalise(
	ctx context.Context, inputs []domain.RawInput,
) ([]domain.Document, []string, error) {
	var (
		docs    []domain.Document
		sources []string
		seen    = make(map[string]bool)
	)

	for i := range inputs {
		normaliser, err := s.registry.Lookup(inputs[i].Kind)
		if err != nil {
			return nil, nil, err
		}

		normalised, err := normaliser.Normalise(ctx, &inputs[i])
		if err != nil {
			return nil, nil, fmt.Errorf("normalise %q: %w", inputs[i].SourceName, err)
		}
		docs = append(docs, normalised...)

		for _, d := range normalised {
			if !seen[d.Metadata.Source] {
				seen[d.Metadata.Source] = true
				sources = append(sources, d.Metadata.Source)
			}
		}
	}

	return docs, sources, nil
}

// recordHistory writes the ingestion to the optional log. Failures are
// logged and swallowed; history is advisory.
func (s *IngestionService) recordHistory(ctx context.Context, report *domain.IngestReport, sources []string) {
	if s.ingestLog == nil {
		return
	}

	entry := domain.IngestionEntry{
		ID:         uuid.New().String(),
		Collection: report.Collection,
		Documents:  report.Documents,
		Chunks:     report.Chunks,
		Sources:    sources,
	}
	if err := s.ingestLog.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record ingestion history: %v", err)
	}
}

// validateCollectionName rejects empty or oversized collection names.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	if len(name) > maxCollectionNameBytes {
		return fmt.Errorf("%w: collection name exceeds %d bytes", domain.ErrInvalidInput, maxCollectionNameBytes)
	}
	return nil
}
