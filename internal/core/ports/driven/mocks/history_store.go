package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// MockHistoryStore is a mock implementation of HistoryStore for testing
type MockHistoryStore struct {
	mu      sync.RWMutex
	turns   map[string][]*domain.ChatTurn
	err     error
	lastGet domain.HistoryQuery
}

// NewMockHistoryStore creates a new MockHistoryStore
func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{
		turns: make(map[string][]*domain.ChatTurn),
	}
}

func historyKey(q domain.HistoryQuery) string {
	agent := "-"
	if q.AgentID != nil {
		agent = fmt.Sprint(*q.AgentID)
	}
	return fmt.Sprintf("%s|%s|%s|%s", q.UserID, q.ChatType, q.ContextID, agent)
}

// SetError makes every call fail with err until cleared with nil
func (m *MockHistoryStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastQuery returns the most recent GetHistory argument
func (m *MockHistoryStore) LastQuery() domain.HistoryQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastGet
}

func (m *MockHistoryStore) GetHistory(ctx context.Context, q domain.HistoryQuery) ([]*domain.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastGet = q
	if m.err != nil {
		return nil, m.err
	}

	turns := m.turns[historyKey(q)]
	if q.Limit > 0 && len(turns) > q.Limit {
		turns = turns[len(turns)-q.Limit:]
	}
	out := make([]*domain.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MockHistoryStore) Append(ctx context.Context, q domain.HistoryQuery, turn *domain.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := historyKey(q)
	m.turns[key] = append(m.turns[key], turn)
	return nil
}
