package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// DocumentStore reads document metadata and content (PostgreSQL)
type DocumentStore interface {
	// Get retrieves a document owned by userID
	// Returns domain.ErrNotFound if it does not exist or belongs to another user
	Get(ctx context.Context, userID string, id int64) (*domain.Document, error)

	// List returns the user's documents matching the filter, newest first
	// A nil filter lists every document the user owns
	List(ctx context.Context, userID string, filter *domain.DocumentFilter) ([]*domain.Document, error)
}

// ChunkStore reads document chunks and runs nearest-neighbour lookups (PostgreSQL + pgvector)
type ChunkStore interface {
	// ListByDocuments returns all chunks of the given documents ordered by document and chunk index
	ListByDocuments(ctx context.Context, documentIDs []int64) ([]*domain.Chunk, error)

	// VectorSearch returns the k chunks of userID's documents most similar to embedding,
	// scored by raw cosine similarity, best first. A non-nil documentIDs restricts the lookup.
	VectorSearch(ctx context.Context, userID string, embedding []float32, k int, documentIDs []int64) ([]*domain.ScoredChunk, error)
}
