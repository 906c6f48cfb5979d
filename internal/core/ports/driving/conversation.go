package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// ConversationService records and reads the chat turns query augmentation uses
type ConversationService interface {
	// RecordTurn appends a turn to the conversation named by conv
	RecordTurn(ctx context.Context, conv domain.HistoryQuery, turn domain.ChatTurn) (*domain.ChatTurn, error)

	// History returns the most recent turns of a conversation, oldest first
	History(ctx context.Context, conv domain.HistoryQuery) ([]*domain.ChatTurn, error)
}
