package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// MockAgentStore is a mock implementation of AgentStore for testing
type MockAgentStore struct {
	mu     sync.RWMutex
	agents map[int64]*domain.Agent
	err    error
}

// NewMockAgentStore creates a new MockAgentStore
func NewMockAgentStore() *MockAgentStore {
	return &MockAgentStore{
		agents: make(map[int64]*domain.Agent),
	}
}

// Add stores an agent
func (m *MockAgentStore) Add(agent *domain.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[agent.ID] = agent
}

// SetError makes Get fail with err until cleared with nil
func (m *MockAgentStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockAgentStore) Get(ctx context.Context, userID string, agentID int64) (*domain.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	agent, ok := m.agents[agentID]
	if !ok || agent.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return agent, nil
}
