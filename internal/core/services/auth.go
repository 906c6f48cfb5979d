package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface.
// Tokens are self-contained; there is no session store to consult.
type authService struct {
	authAdapter driven.AuthAdapter
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		authAdapter: authAdapter,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if err == domain.ErrTokenExpired {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if claims.IsExpired() {
		return nil, domain.ErrTokenExpired
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}

	return claims.AuthContext(), nil
}

// IssueToken mints a token for the given identity
func (s *authService) IssueToken(ctx context.Context, auth domain.AuthContext, ttl time.Duration) (string, error) {
	if auth.UserID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}
	if auth.Role == "" {
		auth.Role = domain.RoleMember
	}
	if auth.SessionID == "" {
		auth.SessionID = generateID()
	}

	now := time.Now()
	return s.authAdapter.GenerateToken(&domain.TokenClaims{
		UserID:    auth.UserID,
		Email:     auth.Email,
		Role:      auth.Role,
		SessionID: auth.SessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
