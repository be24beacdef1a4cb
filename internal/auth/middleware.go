package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/caremypark/api/internal/models"
	pkghttp "github.com/caremypark/api/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// IdentityContextKey is the key for storing the authenticated identity in context
	IdentityContextKey contextKey = "identity"
)

// ExtractBearerToken pulls the bearer token out of the Authorization header.
// Returns an empty string when the header is absent or not a bearer scheme.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// Authenticate validates the bearer token through the gate and injects the
// resulting identity into the request context.
func Authenticate(gate *Gate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := gate.RequireAuthenticated(ExtractBearerToken(r))
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces role-gated access through the gate, so the gate owns
// the role check end to end. The verified identity is injected into the
// request context.
func RequireRole(gate *Gate, required models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := gate.RequireRole(ExtractBearerToken(r), required)
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(models.Identity)
	return identity, ok
}

func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrTokenMissing):
		pkghttp.WriteUnauthorized(w, "Token is missing")
	case errors.Is(err, models.ErrTokenExpired):
		pkghttp.WriteUnauthorized(w, "Token has expired")
	case errors.Is(err, models.ErrTokenInvalid):
		pkghttp.WriteUnauthorized(w, "Invalid token")
	case errors.Is(err, models.ErrInsufficientRole):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
