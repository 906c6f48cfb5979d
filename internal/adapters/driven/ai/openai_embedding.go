package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

// OpenAIEmbedding implements EmbeddingService against the OpenAI embeddings
// API or any compatible endpoint (Ollama).
type OpenAIEmbedding struct {
	client     *openai.Client
	model      string
	dimensions int
	retry      RetryConfig
}

// Model dimensions for known embedding models
var embeddingModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
}

// NewOpenAIEmbedding creates an embedding service for OpenAI
func NewOpenAIEmbedding(apiKey, model, baseURL string) (*OpenAIEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return newEmbedding(newClient(apiKey, baseURL), model), nil
}

// NewOllamaEmbedding creates an embedding service for an Ollama server
func NewOllamaEmbedding(baseURL, model string) (*OpenAIEmbedding, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return newEmbedding(newClient(ollamaPlaceholderKey, baseURL), model), nil
}

func newEmbedding(client *openai.Client, model string) *OpenAIEmbedding {
	dimensions, ok := embeddingModelDimensions[model]
	if !ok {
		// Default to 1536 for unknown models
		dimensions = 1536
	}
	return &OpenAIEmbedding{
		client:     client,
		model:      model,
		dimensions: dimensions,
		retry:      DefaultRetryConfig(),
	}
}

// Embed generates embeddings for multiple texts, in input order
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := retryWithBackoff(ctx, e.retry, func() (openai.EmbeddingResponse, error) {
		return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck embeds a short test string
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close is a no-op; the HTTP client has no resources to release
func (e *OpenAIEmbedding) Close() error {
	return nil
}
