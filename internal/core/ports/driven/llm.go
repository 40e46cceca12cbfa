package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// GenerateOptions configures answer generation.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// GenerationService streams answers from a language model.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Any OpenAI-compatible inference server
type GenerationService interface {
	// StreamChat starts a streaming completion for the conversation and
	// returns a channel of fragments. The channel is closed when the
	// generation completes, fails, or ctx is cancelled. A failure
	// mid-stream is delivered as a final chunk with Err set; fragments
	// already delivered stand. Each call is a fresh generation.
	StreamChat(ctx context.Context, messages []domain.ChatMessage, opts GenerateOptions) (<-chan domain.StreamChunk, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
