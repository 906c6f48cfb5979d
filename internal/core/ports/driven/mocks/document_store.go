package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu      sync.RWMutex
	docs    map[int64]*domain.Document
	listErr error
	getErr  error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		docs: make(map[int64]*domain.Document),
	}
}

// Add stores a document
func (m *MockDocumentStore) Add(docs ...*domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
}

// SetListError makes List fail with err until cleared with nil
func (m *MockDocumentStore) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// SetGetError makes Get fail with err until cleared with nil
func (m *MockDocumentStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

func (m *MockDocumentStore) Get(ctx context.Context, userID string, id int64) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[id]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) List(ctx context.Context, userID string, filter *domain.DocumentFilter) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	var result []*domain.Document
	for _, doc := range m.docs {
		if doc.UserID == userID && filter.Matches(doc) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
