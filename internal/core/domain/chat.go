package domain

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
// Session history is owned by the caller; the core is stateless
// across turns.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// StreamChunk is one element of a streamed generation. A chunk carries
// either a text fragment or a terminal error, never both. The producing
// channel is closed after the final chunk; a stream is finite and not
// restartable.
type StreamChunk struct {
	// Delta is the next text fragment.
	Delta string

	// Err terminates the stream when non-nil. Fragments already
	// emitted are not retracted.
	Err error
}
