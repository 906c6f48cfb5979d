package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	mu       sync.Mutex
	response string
	err      error
	delay    time.Duration
	prompts  [][]driven.LLMMessage
}

// NewMockLLMService creates a MockLLMService that answers with response
func NewMockLLMService(response string) *MockLLMService {
	return &MockLLMService{response: response}
}

func (m *MockLLMService) Complete(ctx context.Context, messages []driven.LLMMessage, opts driven.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, messages)
	response, err, delay := m.response, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockLLMService) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

func (m *MockLLMService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes each call wait before answering, honouring context cancellation
func (m *MockLLMService) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Prompts returns every message list sent so far
func (m *MockLLMService) Prompts() [][]driven.LLMMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]driven.LLMMessage, len(m.prompts))
	copy(out, m.prompts)
	return out
}
