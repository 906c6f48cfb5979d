package ai

import (
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultOllamaBaseURL is the OpenAI-compatible endpoint of a local Ollama
	DefaultOllamaBaseURL = "http://localhost:11434/v1"

	// Ollama ignores the key but the client always sends one
	ollamaPlaceholderKey = "ollama"

	// requestTimeout bounds a single provider HTTP call
	requestTimeout = 60 * time.Second
)

// newClient builds a go-openai client. An empty baseURL targets OpenAI.
func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return openai.NewClientWithConfig(cfg)
}
