package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// MockChunkStore is a mock implementation of ChunkStore for testing.
// Vector search uses cosine similarity unless a fixed similarity is pinned for a chunk.
type MockChunkStore struct {
	mu        sync.RWMutex
	chunks    []*domain.Chunk
	owners    map[int64]string
	pinned    map[domain.ChunkKey]float64
	listErr   error
	searchErr error
	lastK     int
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		owners: make(map[int64]string),
		pinned: make(map[domain.ChunkKey]float64),
	}
}

// Add stores chunks belonging to userID's document
func (m *MockChunkStore) Add(userID string, chunks ...*domain.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.owners[c.DocumentID] = userID
		m.chunks = append(m.chunks, c)
	}
}

// PinSimilarity fixes the similarity vector search reports for a chunk
func (m *MockChunkStore) PinSimilarity(documentID int64, chunkIndex int, similarity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned[domain.ChunkKey{DocumentID: documentID, ChunkIndex: chunkIndex}] = similarity
}

// SetListError makes ListByDocuments fail with err until cleared with nil
func (m *MockChunkStore) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// SetSearchError makes VectorSearch fail with err until cleared with nil
func (m *MockChunkStore) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
}

// LastK returns the k passed to the most recent VectorSearch
func (m *MockChunkStore) LastK() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastK
}

func (m *MockChunkStore) ListByDocuments(ctx context.Context, documentIDs []int64) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	wanted := make(map[int64]bool, len(documentIDs))
	for _, id := range documentIDs {
		wanted[id] = true
	}

	var result []*domain.Chunk
	for _, c := range m.chunks {
		if wanted[c.DocumentID] {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DocumentID != result[j].DocumentID {
			return result[i].DocumentID < result[j].DocumentID
		}
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result, nil
}

func (m *MockChunkStore) VectorSearch(ctx context.Context, userID string, embedding []float32, k int, documentIDs []int64) ([]*domain.ScoredChunk, error) {
	m.mu.Lock()
	m.lastK = k
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	var allowed map[int64]bool
	if documentIDs != nil {
		allowed = make(map[int64]bool, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = true
		}
	}

	var result []*domain.ScoredChunk
	for _, c := range m.chunks {
		if m.owners[c.DocumentID] != userID {
			continue
		}
		if allowed != nil && !allowed[c.DocumentID] {
			continue
		}
		sim, ok := m.pinned[c.Key()]
		if !ok {
			if len(c.Embedding) == 0 {
				continue
			}
			sim = cosine(embedding, c.Embedding)
		}
		result = append(result, &domain.ScoredChunk{Chunk: c, Similarity: sim})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Similarity > result[j].Similarity
	})
	if k > 0 && len(result) > k {
		result = result[:k]
	}
	return result, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
