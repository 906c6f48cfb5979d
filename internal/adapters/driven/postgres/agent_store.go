package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AgentStore = (*AgentStore)(nil)

// AgentStore implements driven.AgentStore using PostgreSQL
type AgentStore struct {
	db *DB
}

// NewAgentStore creates a new AgentStore
func NewAgentStore(db *DB) *AgentStore {
	return &AgentStore{db: db}
}

// Get retrieves an agent and its document set
func (s *AgentStore) Get(ctx context.Context, userID string, agentID int64) (*domain.Agent, error) {
	query := `
		SELECT a.id, a.user_id, a.name,
		       COALESCE(array_agg(ad.document_id ORDER BY ad.document_id)
		                FILTER (WHERE ad.document_id IS NOT NULL), '{}')
		FROM agents a
		LEFT JOIN agent_documents ad ON ad.agent_id = a.id
		WHERE a.id = $1 AND a.user_id = $2
		GROUP BY a.id
	`

	var agent domain.Agent
	var ids pq.Int64Array
	err := s.db.QueryRowContext(ctx, query, agentID, userID).Scan(&agent.ID, &agent.UserID, &agent.Name, &ids)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	agent.DocumentIDs = []int64(ids)
	return &agent, nil
}
