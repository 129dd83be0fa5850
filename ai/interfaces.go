package ai

import (
	"context"

	"github.com/sidekick-labs/sidekick/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel generates completions from conversational messages.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete generates a full response for the given messages.
	Complete(ctx context.Context, messages []core.Message) (string, error)

	// Stream generates a response, invoking onDelta for each text delta as it
	// arrives. Returning an error from onDelta stops the stream. The full
	// accumulated response is returned on success.
	Stream(ctx context.Context, messages []core.Message, onDelta func(delta string) error) (string, error)
}

// Continuity describes how a new message relates to the preceding exchange.
type Continuity struct {
	// IsFollowUp is true when the message continues the previous topic.
	IsFollowUp bool

	// SearchQuery is the query to use for retrieval: the new message alone
	// for a fresh topic, or the message enriched with prior context for a
	// follow-up.
	SearchQuery string

	// Explanation is the model's reasoning, kept for diagnostics.
	Explanation string
}

// ContinuityAnalyzer decides whether a message is a follow-up to the previous
// conversational exchange and derives the retrieval query accordingly.
type ContinuityAnalyzer interface {
	Analyze(ctx context.Context, prevUser, prevAssistant, message string) (Continuity, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages its services, ensuring they share
// configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// ContinuityAnalyzer returns the conversation continuity service.
	// The returned ContinuityAnalyzer is safe for concurrent use.
	ContinuityAnalyzer() ContinuityAnalyzer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
