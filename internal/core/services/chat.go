package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatStreamer = (*ChatService)(nil)

// noContextMarker is injected into the prompt when retrieval returns
// nothing, so the model knows to answer from general knowledge.
const noContextMarker = "(no relevant passages were found in the knowledge base)"

// systemPromptTemplate frames the model as a grounded assistant. The
// %s placeholder receives the retrieved passages.
const systemPromptTemplate = `You are a helpful research assistant. Answer the user's question using the context passages below. Prefer information from the context; if the context does not cover the question, say so and answer from general knowledge.

Context:
%s`

// ChatService answers questions grounded in retrieved passages,
// streaming the model output back to the caller.
type ChatService struct {
	retriever driving.Retriever
	generator driven.GenerationService
	topK      int
}

// NewChatService creates a new chat service.
// The generator may be nil when the server runs unconfigured;
// StreamAnswer then fails with ErrNotConfigured.
func NewChatService(retriever driving.Retriever, generator driven.GenerationService) *ChatService {
	return &ChatService{
		retriever: retriever,
		generator: generator,
		topK:      DefaultTopK,
	}
}

// SetTopK overrides the number of passages retrieved per question.
func (s *ChatService) SetTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

// StreamAnswer retrieves context for the message and streams a grounded
// answer. If the collection does not exist yet the chat degrades to
// answering without context instead of failing.
func (s *ChatService) StreamAnswer(
	ctx context.Context, message, collection string,
) (<-chan domain.StreamChunk, error) {
	logger.Section("RAG Chat")

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}
	collection = strings.TrimSpace(collection)
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: generation service unavailable", domain.ErrNotConfigured)
	}

	chunks, err := s.retriever.Retrieve(ctx, message, collection, s.topK)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		logger.Warn("Collection %q not found, answering without context", collection)
		chunks = nil
	case err != nil:
		return nil, err
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(systemPromptTemplate, formatContext(chunks))},
		{Role: domain.RoleUser, Content: message},
	}

	stream, err := s.generator.StreamChat(ctx, messages, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("start generation: %w", err)
	}
	return stream, nil
}

// formatContext renders retrieved passages for the system prompt,
// highest score first, each labelled with its source.
func formatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return noContextMarker
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] Source: %s", i+1, c.Metadata.Source)
		if c.Metadata.Page > 0 {
			fmt.Fprintf(&b, " (page %d)", c.Metadata.Page)
		}
		b.WriteString("\n")
		b.WriteString(c.Text)
	}
	return b.String()
}
