package mocks

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   bool
	err        error
	vectors    map[string][]float32
	calls      int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
		vectors:    make(map[string][]float32),
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[query]; ok {
		return v, nil
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// SetError makes every call fail with err until cleared with nil
func (m *MockEmbeddingService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetVector pins the embedding returned for text
func (m *MockEmbeddingService) SetVector(text string, v []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = v
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dim
}

// Calls returns how many embeddings were requested
func (m *MockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
