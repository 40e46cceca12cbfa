// Package config loads the ragd configuration from a TOML file with
// environment variable overrides for secrets and endpoints.
//
// The file lives at ~/.ragd/config.toml by default. A missing file is
// not an error; defaults apply and the environment can still supply
// the API keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultAddr         = ":8080"
	DefaultCollection   = "research_papers"
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Config is the full ragd configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Collections CollectionsConfig `toml:"collections"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Qdrant      QdrantConfig      `toml:"qdrant"`
	Generation  GenerationConfig  `toml:"generation"`
	Storage     StorageConfig     `toml:"storage"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CollectionsConfig names the default collection.
type CollectionsConfig struct {
	Default string `toml:"default"`
}

// ChunkingConfig configures the text splitter.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxBatchSize      int     `toml:"max_batch_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// QdrantConfig configures the vector index backend.
type QdrantConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GenerationConfig configures the chat completion backend.
type GenerationConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	TopK           int    `toml:"top_k"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".ragd", "config.toml"), nil
}

// Load reads the config file at path, applies defaults and environment
// overrides. An empty path uses the default location; a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Collections.Default == "" {
		c.Collections.Default = DefaultCollection
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = DefaultChunkSize
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = DefaultChunkOverlap
	}
}

// applyEnv overrides file values with environment variables. Secrets
// are expected to come from here rather than from the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embedding.APIKey = v
		c.Generation.APIKey = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Qdrant.APIKey = v
	}
	if v := os.Getenv("RAGD_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// EmbeddingTimeout returns the embedding timeout as a duration,
// zero when unset so the adapter default applies.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSeconds) * time.Second
}

// QdrantTimeout returns the Qdrant timeout as a duration.
func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.TimeoutSeconds) * time.Second
}

// GenerationTimeout returns the generation timeout as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}
