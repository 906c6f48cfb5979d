package mocks

import (
	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// MockAuthAdapter is a mock implementation of AuthAdapter for testing.
// Tokens map directly to claims registered with SetClaims.
type MockAuthAdapter struct {
	claims map[string]*domain.TokenClaims
}

// NewMockAuthAdapter creates a new MockAuthAdapter
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{claims: make(map[string]*domain.TokenClaims)}
}

// SetClaims registers the claims a token parses to
func (m *MockAuthAdapter) SetClaims(token string, claims *domain.TokenClaims) {
	m.claims[token] = claims
}

func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	token := "token-" + claims.UserID
	m.claims[token] = claims
	return token, nil
}

func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	claims, ok := m.claims[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
