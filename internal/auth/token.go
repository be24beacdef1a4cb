package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/caremypark/api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies signed bearer tokens. Verification is a
// pure function of (token, secret, clock): there is no server-side session
// state and no revocation list, so a token stays valid until expiry.
type TokenManager struct {
	secret      []byte
	tokenExpiry time.Duration
}

// NewTokenManager creates a new TokenManager. The secret is the process-wide
// signing key established at startup.
func NewTokenManager(secret string, tokenExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
	}
}

// GenerateToken creates a signed token carrying the caller's email and role.
func (tm *TokenManager) GenerateToken(email string, role models.Role) (string, error) {
	return tm.GenerateTokenWithTTL(email, role, tm.tokenExpiry)
}

// GenerateTokenWithTTL creates a signed token with an explicit lifetime.
func (tm *TokenManager) GenerateTokenWithTTL(email string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. Returns models.ErrTokenExpired for a token past its expiry and
// models.ErrTokenInvalid for any tampered or malformed token.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	// Reject tokens minted with a role outside the closed set
	if _, err := models.ParseRole(string(claims.Role)); err != nil || claims.Role == "" {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}
