package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// AI flags change when services are swapped through the runtime registry.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	HistoryBackend string // "redis" or "postgres"

	embeddingAvailable bool
	llmAvailable       bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(historyBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		HistoryBackend: historyBackend,
	}
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether LLM service is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// CanDoSemanticSearch returns true if the vector signal can run
func (c *RuntimeConfig) CanDoSemanticSearch() bool {
	return c.EmbeddingAvailable()
}

// CanAugmentQueries returns true if query augmentation can reach an LLM
func (c *RuntimeConfig) CanAugmentQueries() bool {
	return c.LLMAvailable()
}

// Capabilities is the public view of runtime availability
type Capabilities struct {
	HistoryBackend    string `json:"history_backend"`
	SemanticSearch    bool   `json:"semantic_search"`
	QueryAugmentation bool   `json:"query_augmentation"`
}

// Capabilities snapshots the current flags
func (c *RuntimeConfig) Capabilities() Capabilities {
	return Capabilities{
		HistoryBackend:    c.HistoryBackend,
		SemanticSearch:    c.CanDoSemanticSearch(),
		QueryAugmentation: c.CanAugmentQueries(),
	}
}
