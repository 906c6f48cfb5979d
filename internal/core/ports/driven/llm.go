package driven

import (
	"context"
)

// LLMMessage is one message of a chat completion prompt
type LLMMessage struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// CompletionOptions tunes a single completion call
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
	JSONMode    bool // Ask the model for a JSON object response
}

// LLMService provides large language model capabilities for search enhancement
type LLMService interface {
	// Complete runs a chat completion and returns the assistant's text
	Complete(ctx context.Context, messages []LLMMessage, opts CompletionOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
