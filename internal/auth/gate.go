package auth

import (
	"github.com/caremypark/api/internal/models"
)

// Gate performs request-level access control. Every check is stateless and
// re-evaluated per call; the returned Identity is threaded through the
// request context by the middleware, never stored globally.
type Gate struct {
	tm *TokenManager
}

// NewGate creates a new access-control gate backed by the token manager.
func NewGate(tm *TokenManager) *Gate {
	return &Gate{tm: tm}
}

// RequireAuthenticated verifies the bearer token and returns the caller's
// identity. Fails with ErrTokenMissing, ErrTokenInvalid or ErrTokenExpired.
func (g *Gate) RequireAuthenticated(token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, models.ErrTokenMissing
	}

	claims, err := g.tm.ValidateToken(token)
	if err != nil {
		return models.Identity{}, err
	}

	return models.Identity{Email: claims.Email, Role: claims.Role}, nil
}

// RequireRole verifies the bearer token and additionally asserts the caller
// holds the required role, failing with ErrInsufficientRole otherwise.
func (g *Gate) RequireRole(token string, required models.Role) (models.Identity, error) {
	identity, err := g.RequireAuthenticated(token)
	if err != nil {
		return models.Identity{}, err
	}

	if identity.Role != required {
		return models.Identity{}, models.ErrInsufficientRole
	}

	return identity, nil
}
