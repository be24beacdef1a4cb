package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caremypark/api/internal/models"
	"github.com/caremypark/api/internal/services"
)

func TestAuthHandler_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		service := &MockAuthService{
			RegisterFunc: func(ctx context.Context, email, password, role string) (*services.UserResponse, error) {
				return &services.UserResponse{Email: email, Role: "visitor"}, nil
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/register", RegisterRequest{
			Email:    "alice@example.com",
			Password: "password123",
		})
		w := httptest.NewRecorder()
		handler.Register(w, req)

		var resp map[string]interface{}
		AssertJSONResponse(t, w, http.StatusCreated, &resp)
		assert.Equal(t, "alice@example.com", resp["email"])
		assert.Equal(t, "visitor", resp["role"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		service := &MockAuthService{
			RegisterFunc: func(ctx context.Context, email, password, role string) (*services.UserResponse, error) {
				return nil, models.ErrConflict
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/register", RegisterRequest{
			Email:    "alice@example.com",
			Password: "password123",
		})
		w := httptest.NewRecorder()
		handler.Register(w, req)

		AssertErrorResponse(t, w, http.StatusConflict, "conflict")
	})

	t.Run("invalid payloads", func(t *testing.T) {
		handler := NewAuthHandler(&MockAuthService{})

		tests := []struct {
			name string
			body interface{}
		}{
			{"missing email", RegisterRequest{Password: "password123"}},
			{"bad email", RegisterRequest{Email: "not-an-email", Password: "password123"}},
			{"missing password", RegisterRequest{Email: "alice@example.com"}},
			{"bad role", RegisterRequest{Email: "alice@example.com", Password: "password123", Role: "admin"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := NewTestRequest(t, http.MethodPost, "/api/register", tt.body)
				w := httptest.NewRecorder()
				handler.Register(w, req)
				AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			})
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		handler := NewAuthHandler(&MockAuthService{})

		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("successful login returns token", func(t *testing.T) {
		service := &MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResult, error) {
				return &services.LoginResult{
					Token: "signed.jwt.token",
					User:  &services.UserResponse{Email: email, Role: "visitor"},
				}, nil
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "password123",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		var resp map[string]interface{}
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "signed.jwt.token", resp["token"])
	})

	t.Run("2fa-enabled account gets no token", func(t *testing.T) {
		service := &MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResult, error) {
				return &services.LoginResult{Requires2FA: true}, nil
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "password123",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		var resp map[string]interface{}
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, true, resp["requires_2fa"])
		assert.NotContains(t, resp, "token")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		service := &MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResult, error) {
				return nil, models.ErrUnauthorized
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "wrongpassword",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})
}

func TestAuthHandler_VerifyTwoFactor(t *testing.T) {
	t.Run("valid code returns token", func(t *testing.T) {
		service := &MockAuthService{
			VerifyTwoFactorFunc: func(ctx context.Context, email, code string) (*services.LoginResult, error) {
				return &services.LoginResult{
					Token: "signed.jwt.token",
					User:  &services.UserResponse{Email: email, Role: "visitor"},
				}, nil
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/verify-2fa", VerifyTwoFactorRequest{
			Email: "alice@example.com",
			OTP:   "123456",
		})
		w := httptest.NewRecorder()
		handler.VerifyTwoFactor(w, req)

		var resp map[string]interface{}
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "signed.jwt.token", resp["token"])
	})

	t.Run("invalid code", func(t *testing.T) {
		service := &MockAuthService{
			VerifyTwoFactorFunc: func(ctx context.Context, email, code string) (*services.LoginResult, error) {
				return nil, models.ErrInvalidOTP
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/verify-2fa", VerifyTwoFactorRequest{
			Email: "alice@example.com",
			OTP:   "000000",
		})
		w := httptest.NewRecorder()
		handler.VerifyTwoFactor(w, req)

		AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("unknown user", func(t *testing.T) {
		service := &MockAuthService{
			VerifyTwoFactorFunc: func(ctx context.Context, email, code string) (*services.LoginResult, error) {
				return nil, models.ErrNotFound
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/verify-2fa", VerifyTwoFactorRequest{
			Email: "ghost@example.com",
			OTP:   "123456",
		})
		w := httptest.NewRecorder()
		handler.VerifyTwoFactor(w, req)

		AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})

	t.Run("malformed otp rejected before service", func(t *testing.T) {
		called := false
		service := &MockAuthService{
			VerifyTwoFactorFunc: func(ctx context.Context, email, code string) (*services.LoginResult, error) {
				called = true
				return nil, models.ErrInvalidOTP
			},
		}
		handler := NewAuthHandler(service)

		for _, otp := range []string{"12345", "1234567", "abcdef"} {
			req := NewTestRequest(t, http.MethodPost, "/api/verify-2fa", VerifyTwoFactorRequest{
				Email: "alice@example.com",
				OTP:   otp,
			})
			w := httptest.NewRecorder()
			handler.VerifyTwoFactor(w, req)
			AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
		}
		assert.False(t, called)
	})
}

func TestAuthHandler_EnableTwoFactor(t *testing.T) {
	t.Run("returns enrollment material", func(t *testing.T) {
		service := &MockAuthService{
			EnableTwoFactorFunc: func(ctx context.Context, email string) (*services.TwoFactorSetup, error) {
				return &services.TwoFactorSetup{
					Secret:          "JBSWY3DPEHPK3PXP",
					ProvisioningURI: "otpauth://totp/CareMyPark:" + email + "?secret=JBSWY3DPEHPK3PXP&issuer=CareMyPark",
					QRCode:          "data:image/png;base64,abc",
				}, nil
			},
		}
		handler := NewAuthHandler(service)

		req := NewTestRequest(t, http.MethodPost, "/api/enable-2fa", nil)
		req = WithIdentity(req, "alice@example.com", models.RoleVisitor)
		w := httptest.NewRecorder()
		handler.EnableTwoFactor(w, req)

		var resp map[string]interface{}
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "JBSWY3DPEHPK3PXP", resp["secret"])
		assert.Contains(t, resp["provisioning_uri"], "otpauth://totp/")
		assert.Contains(t, resp["qr_code"], "data:image/png;base64,")
	})

	t.Run("missing identity", func(t *testing.T) {
		handler := NewAuthHandler(&MockAuthService{})

		req := NewTestRequest(t, http.MethodPost, "/api/enable-2fa", nil)
		w := httptest.NewRecorder()
		handler.EnableTwoFactor(w, req)

		AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})
}
