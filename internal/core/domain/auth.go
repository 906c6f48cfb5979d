package domain

import "time"

// Role is a user's permission level
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
}

// IsAdmin checks if the authenticated user is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired reports whether the claims have passed their expiry
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() > c.ExpiresAt
}

// AuthContext converts claims into a request auth context
func (c *TokenClaims) AuthContext() *AuthContext {
	return &AuthContext{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
}
