// Package cli implements the ragd command line interface. It wires the
// configured adapters into the core services and hands them to the
// commands and the HTTP server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	embeddingopenai "github.com/custodia-labs/ragd/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/custodia-labs/ragd/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragd/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragd/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/ragd/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/ragd/internal/config"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/services"
	"github.com/custodia-labs/ragd/internal/logger"
	"github.com/custodia-labs/ragd/internal/normalisers"
	"github.com/custodia-labs/ragd/internal/normalisers/pdf"
	"github.com/custodia-labs/ragd/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragd/internal/postprocessors"
	"github.com/custodia-labs/ragd/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Wired services, populated by wireServices before commands run.
var (
	cfg              *config.Config
	ingestionService *services.IngestionService
	retrievalService *services.RetrievalService
	chatService      *services.ChatService
	ingestLog        driven.IngestionLog
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Document indexing and retrieval-augmented chat",
	Long: `ragd indexes documents into a vector store and answers questions
about them with retrieval-augmented generation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return wireServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ragd/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices loads the config and constructs services from whatever
// backends are configured. Missing backends leave the corresponding
// service degraded rather than failing startup; requests that need
// them fail with a not-configured error.
func wireServices() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	chunkProcessor, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return fmt.Errorf("chunking config: %w", err)
	}
	pipeline := postprocessors.NewPipeline(chunkProcessor)
	registry := normalisers.NewRegistry(plaintext.New(), pdf.New())

	var embedder driven.EmbeddingService
	if cfg.Embedding.APIKey != "" {
		embedder, err = embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:            cfg.Embedding.APIKey,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Timeout:           cfg.EmbeddingTimeout(),
			MaxBatchSize:      cfg.Embedding.MaxBatchSize,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		})
		if err != nil {
			return fmt.Errorf("embedding service: %w", err)
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, embedding disabled")
	}

	var vectors driven.VectorIndex
	if cfg.Qdrant.URL != "" {
		vectors, err = qdrant.NewIndex(qdrant.Config{
			URL:     cfg.Qdrant.URL,
			APIKey:  cfg.Qdrant.APIKey,
			Timeout: cfg.QdrantTimeout(),
		})
		if err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
	} else {
		logger.Warn("QDRANT_URL not set, using in-memory vector index (data is not persisted)")
		vectors = memory.NewIndex()
	}

	var generator driven.GenerationService
	if cfg.Generation.APIKey != "" {
		generator, err = llmopenai.NewGenerationService(llmopenai.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
			Timeout: cfg.GenerationTimeout(),
		})
		if err != nil {
			return fmt.Errorf("generation service: %w", err)
		}
	}

	ingestionService = services.NewIngestionService(registry, pipeline, embedder, vectors)
	retrievalService = services.NewRetrievalService(embedder, vectors)
	chatService = services.NewChatService(retrievalService, generator)
	if cfg.Generation.TopK > 0 {
		chatService.SetTopK(cfg.Generation.TopK)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		// History is advisory; run without it.
		logger.Warn("Ingestion log unavailable: %v", err)
	} else {
		ingestLog = store
		ingestionService.SetIngestionLog(store)
	}

	return nil
}
