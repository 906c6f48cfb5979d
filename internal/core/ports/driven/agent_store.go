package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// AgentStore reads agent configuration (PostgreSQL)
type AgentStore interface {
	// Get retrieves an agent owned by userID with its document set
	// Returns domain.ErrNotFound if it does not exist or belongs to another user
	Get(ctx context.Context, userID string, agentID int64) (*domain.Agent, error)
}
