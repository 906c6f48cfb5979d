package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL with pgvector
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// ListByDocuments returns all chunks of the given documents.
// Embeddings are not loaded.
func (s *ChunkStore) ListByDocuments(ctx context.Context, documentIDs []int64) ([]*domain.Chunk, error) {
	if len(documentIDs) == 0 {
		return []*domain.Chunk{}, nil
	}

	query := `
		SELECT document_id, chunk_index, content
		FROM document_chunks
		WHERE document_id = ANY($1)
		ORDER BY document_id, chunk_index
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(documentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := []*domain.Chunk{}
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// VectorSearch returns the k nearest chunks of userID's documents by cosine distance
func (s *ChunkStore) VectorSearch(ctx context.Context, userID string, embedding []float32, k int, documentIDs []int64) ([]*domain.ScoredChunk, error) {
	if documentIDs != nil && len(documentIDs) == 0 {
		return []*domain.ScoredChunk{}, nil
	}

	query, args := vectorSearchQuery(userID, pgvector.NewVector(embedding), k, documentIDs)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.ScoredChunk{}
	for rows.Next() {
		var c domain.Chunk
		var similarity float64
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content, &similarity); err != nil {
			return nil, err
		}
		results = append(results, &domain.ScoredChunk{Chunk: &c, Similarity: similarity})
	}
	return results, rows.Err()
}

func vectorSearchQuery(userID string, embedding pgvector.Vector, k int, documentIDs []int64) (string, []any) {
	query := `
		SELECT c.document_id, c.chunk_index, c.content, 1 - (c.embedding <=> $1) AS similarity
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $2 AND c.embedding IS NOT NULL`
	args := []any{embedding, userID}

	if documentIDs != nil {
		args = append(args, pq.Array(documentIDs))
		query += ` AND c.document_id = ANY($3)`
	}

	args = append(args, k)
	query += fmt.Sprintf(` ORDER BY c.embedding <=> $1 LIMIT $%d`, len(args))
	return query, args
}
