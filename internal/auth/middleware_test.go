package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremypark/api/internal/models"
)

func newTestGate() (*Gate, *TokenManager) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	return NewGate(tm), tm
}

func TestGateRequireAuthenticated(t *testing.T) {
	gate, tm := newTestGate()

	t.Run("missing token", func(t *testing.T) {
		_, err := gate.RequireAuthenticated("")
		assert.ErrorIs(t, err, models.ErrTokenMissing)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := gate.RequireAuthenticated("garbage")
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := tm.GenerateTokenWithTTL("alice@example.com", models.RoleVisitor, -time.Minute)
		require.NoError(t, err)

		_, err = gate.RequireAuthenticated(token)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tm.GenerateToken("alice@example.com", models.RoleVisitor)
		require.NoError(t, err)

		identity, err := gate.RequireAuthenticated(token)
		require.NoError(t, err)
		assert.Equal(t, models.Identity{Email: "alice@example.com", Role: models.RoleVisitor}, identity)
	})
}

func TestGateRequireRole(t *testing.T) {
	gate, tm := newTestGate()

	visitorToken, err := tm.GenerateToken("alice@example.com", models.RoleVisitor)
	require.NoError(t, err)
	authorityToken, err := tm.GenerateToken("staff@example.com", models.RoleAuthority)
	require.NoError(t, err)

	t.Run("role mismatch", func(t *testing.T) {
		_, err := gate.RequireRole(visitorToken, models.RoleAuthority)
		assert.ErrorIs(t, err, models.ErrInsufficientRole)
	})

	t.Run("role match", func(t *testing.T) {
		identity, err := gate.RequireRole(authorityToken, models.RoleAuthority)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAuthority, identity.Role)
	})

	t.Run("missing token beats role check", func(t *testing.T) {
		_, err := gate.RequireRole("", models.RoleAuthority)
		assert.ErrorIs(t, err, models.ErrTokenMissing)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractBearerToken(r))
		})
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	gate, tm := newTestGate()

	var gotIdentity models.Identity
	var gotOK bool
	handler := Authenticate(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, gotOK = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := tm.GenerateTokenWithTTL("alice@example.com", models.RoleVisitor, -time.Minute)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
	})

	t.Run("valid token reaches handler with identity", func(t *testing.T) {
		token, err := tm.GenerateToken("alice@example.com", models.RoleVisitor)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotOK)
		assert.Equal(t, "alice@example.com", gotIdentity.Email)
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	gate, tm := newTestGate()

	var gotIdentity models.Identity
	handler := RequireRole(gate, models.RoleAuthority)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("visitor forbidden", func(t *testing.T) {
		token, err := tm.GenerateToken("alice@example.com", models.RoleVisitor)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("authority allowed with identity injected", func(t *testing.T) {
		token, err := tm.GenerateToken("staff@example.com", models.RoleAuthority)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.Identity{Email: "staff@example.com", Role: models.RoleAuthority}, gotIdentity)
	})

	t.Run("missing token beats role check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := tm.GenerateTokenWithTTL("staff@example.com", models.RoleAuthority, -time.Minute)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
