package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// SearchService is the single entry point for chunk retrieval
type SearchService interface {
	// Search ranks chunks across the user's corpus, narrowed by opts
	Search(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// SearchWithinDocument restricts the search to a single document
	SearchWithinDocument(ctx context.Context, documentID int64, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// SearchAgentDocuments restricts the search to an agent's configured documents
	SearchAgentDocuments(ctx context.Context, agentID int64, query, userID string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}

// AugmentationService rewrites queries using conversation history
type AugmentationService interface {
	// AugmentQuery never fails; on any problem it returns the original query with zero confidence
	AugmentQuery(ctx context.Context, req domain.AugmentationRequest) *domain.AugmentationResult
}
