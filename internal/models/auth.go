package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the signed claims carried by every bearer token.
type TokenClaims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller, produced by the access-control gate
// and threaded explicitly through request context.
type Identity struct {
	Email string
	Role  Role
}
