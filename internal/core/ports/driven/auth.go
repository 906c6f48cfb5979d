package driven

import "github.com/custodia-labs/sercha-kms/internal/core/domain"

// AuthAdapter handles token cryptography.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
