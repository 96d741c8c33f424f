// Package llm provides chat completion clients over OpenAI-compatible and
// Anthropic APIs. The core treats the LLM as a black box: submit messages,
// receive either the full text or an ordered stream of text fragments. No
// structured output mode is assumed; callers parse plain text.
package llm

import (
	"context"

	"vibecode/internal/models"
)

// ChatOptions tunes a single chat completion request.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int64
}

// Chunk is one incremental text fragment from a streaming completion. A
// non-nil Err terminates the stream; the channel is closed afterwards.
type Chunk struct {
	Text string
	Err  error
}

// Client is the contract the agents require from an LLM provider. Fragment
// delivery on the stream channel preserves arrival order exactly.
type Client interface {
	// Chat sends the message list and returns the complete response text.
	Chat(ctx context.Context, messages []models.Message, opts ChatOptions) (string, error)

	// ChatStream sends the message list and returns a channel of text
	// fragments in arrival order. The channel closes when the stream ends.
	ChatStream(ctx context.Context, messages []models.Message, opts ChatOptions) (<-chan Chunk, error)

	// Model returns the active model ID.
	Model() string

	// SetModel switches the active model for subsequent requests.
	SetModel(model string)

	// ListModels fetches the models available from the provider.
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}
