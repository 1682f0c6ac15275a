// Package auth issues and validates the learner tokens that scope every
// session request to one learner.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type issued.
const TokenTypeAccess = "access"

// JWTService defines operations for managing learner tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for learnerID.
	GenerateToken(ctx context.Context, learnerID uuid.UUID) (string, error)

	// ValidateToken validates tokenString and returns its claims. Expired,
	// malformed or foreign-signed tokens are rejected.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of a learner token.
type Claims struct {
	LearnerID uuid.UUID `json:"uid,omitempty"`
	TokenType string    `json:"type,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
