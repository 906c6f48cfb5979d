package postgres

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore implements driven.HistoryStore on the chat_messages table
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new HistoryStore
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// GetHistory returns the most recent q.Limit turns, oldest first
func (s *HistoryStore) GetHistory(ctx context.Context, q domain.HistoryQuery) ([]*domain.ChatTurn, error) {
	if q.Limit <= 0 {
		return []*domain.ChatTurn{}, nil
	}

	query := `
		SELECT role, content, created_at
		FROM chat_messages
		WHERE user_id = $1 AND chat_type = $2 AND context_id = $3
		  AND agent_id IS NOT DISTINCT FROM $4
		ORDER BY created_at DESC, id DESC
		LIMIT $5
	`

	rows, err := s.db.QueryContext(ctx, query, q.UserID, string(q.ChatType), q.ContextID, NullInt64(q.AgentID), q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []*domain.ChatTurn{}
	for rows.Next() {
		var t domain.ChatTurn
		if err := rows.Scan(&t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows come newest first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Append records a turn
func (s *HistoryStore) Append(ctx context.Context, q domain.HistoryQuery, turn *domain.ChatTurn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO chat_messages (user_id, chat_type, context_id, agent_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		q.UserID,
		string(q.ChatType),
		q.ContextID,
		NullInt64(q.AgentID),
		turn.Role,
		turn.Content,
		createdAt,
	)
	return err
}
