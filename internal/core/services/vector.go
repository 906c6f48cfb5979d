package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/runtime"
)

// VectorSearcher ranks chunks by cosine similarity between the query
// embedding and stored chunk embeddings.
type VectorSearcher struct {
	chunks   driven.ChunkStore
	services *runtime.Services
	logger   *slog.Logger
}

// NewVectorSearcher creates a VectorSearcher
// The embedding service is looked up per call through services
func NewVectorSearcher(chunks driven.ChunkStore, services *runtime.Services, logger *slog.Logger) *VectorSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearcher{chunks: chunks, services: services, logger: logger}
}

// Search returns up to k candidate chunks nearest to the query, best first,
// with raw cosine similarity as the score. Without an embedding service the
// result is empty and degraded. Embedding or store failures are returned, as
// is a query embedding whose size differs from the model's dimensions.
func (s *VectorSearcher) Search(ctx context.Context, query string, set *CandidateSet, k int) (*domain.SignalResults, error) {
	out := &domain.SignalResults{Signal: domain.SignalVector, Results: []*domain.SearchResult{}}
	if set.Empty() {
		return out, nil
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		out.Degraded = true
		return out, nil
	}

	embedding, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if dim := embedder.Dimensions(); dim > 0 && len(embedding) != dim {
		return nil, fmt.Errorf("embed query: model %s returned %d dimensions, expected %d",
			embedder.Model(), len(embedding), dim)
	}

	var ids []int64
	if set.Restricted {
		ids = set.IDs()
	}

	scored, err := s.chunks.VectorSearch(ctx, set.UserID, embedding, k, ids)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	for _, sc := range scored {
		doc := set.Document(sc.Chunk.DocumentID)
		if doc == nil {
			s.logger.Debug("vector hit outside candidate set",
				"user_id", set.UserID, "document_id", sc.Chunk.DocumentID)
			continue
		}
		r := domain.NewSearchResult(doc, sc.Chunk.ChunkIndex, sc.Chunk.Content, sc.Similarity)
		r.MatchType = domain.MatchTypeSemantic
		r.VectorScore = sc.Similarity
		out.Results = append(out.Results, r)
	}
	return out, nil
}
