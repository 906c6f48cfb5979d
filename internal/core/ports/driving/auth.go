package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// AuthService resolves bearer tokens to identities
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken mints a token for a user, for operators and tests
	IssueToken(ctx context.Context, auth domain.AuthContext, ttl time.Duration) (string, error)
}
