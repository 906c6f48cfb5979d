package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// HistoryStore persists conversation turns (Redis or PostgreSQL)
type HistoryStore interface {
	// GetHistory returns up to q.Limit most recent turns, oldest first
	// An unknown conversation yields an empty slice, not an error
	GetHistory(ctx context.Context, q domain.HistoryQuery) ([]*domain.ChatTurn, error)

	// Append records a turn at the end of the conversation
	Append(ctx context.Context, q domain.HistoryQuery, turn *domain.ChatTurn) error
}
