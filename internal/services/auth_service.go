package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/caremypark/api/internal/auth"
	"github.com/caremypark/api/internal/models"
	pkgauth "github.com/caremypark/api/pkg/auth"
	pkglogger "github.com/caremypark/api/pkg/logger"
)

// UserRepository defines the persistence operations the auth flows need
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	EnableTwoFactor(ctx context.Context, email, secret string) error
}

// AuthService handles registration, login, and the TOTP second factor
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	totp        *auth.TOTPManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, totp *auth.TOTPManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		totp:        totp,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult is the outcome of a login or 2FA verification. When the account
// has 2FA enabled, Login returns Requires2FA without a token; the token is
// only issued once the TOTP code has been verified.
type LoginResult struct {
	Token       string        `json:"token,omitempty"`
	Requires2FA bool          `json:"requires_2fa,omitempty"`
	User        *UserResponse `json:"user,omitempty"`
}

// TwoFactorSetup carries the enrollment material returned by EnableTwoFactor
type TwoFactorSetup struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRCode          string `json:"qr_code"`
}

// Register creates a new user account. The role is fixed here and never
// self-escalatable afterwards. The email is stored exactly as supplied; it is
// the case-sensitive natural key of the account.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*UserResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, models.ErrBadRequest
	}

	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, models.ErrInvalidRole
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	// Check if user already exists
	_, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         parsedRole,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("email", pkglogger.SanitizedEmail(createdUser.Email)))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "user_registered",
		Email:     createdUser.Email,
		Success:   true,
	})

	return &UserResponse{Email: createdUser.Email, Role: createdUser.Role.String()}, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller. Accounts with 2FA enabled get no token
// here, only a requires_2fa signal.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Email:         user.Email,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	// Second factor pending: signal it and stop, no token yet
	if user.TwoFactorEnabled {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_2fa_required",
			Email:     user.Email,
			Success:   true,
		})
		return &LoginResult{Requires2FA: true}, nil
	}

	token, err := s.tm.GenerateToken(user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.UpdateLastLogin(ctx, user.Email, time.Now()); err != nil {
		// The login itself succeeded; record the failure and move on
		s.logger.Warn("failed to update last login", slog.Any("error", err))
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Email:     user.Email,
		Success:   true,
	})

	return &LoginResult{
		Token: token,
		User:  &UserResponse{Email: user.Email, Role: user.Role.String()},
	}, nil
}

// VerifyTwoFactor completes a 2FA login. A failed OTP check never issues a
// token.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, code string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.OTPSecret == "" || !s.totp.ValidateCode(user.OTPSecret, code) {
		s.logger.Info("2fa verification failed", slog.String("email", pkglogger.SanitizedEmail(email)))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "2fa_failed",
			Email:         user.Email,
			FailureReason: "invalid_otp",
			Success:       false,
		})
		return nil, models.ErrInvalidOTP
	}

	token, err := s.tm.GenerateToken(user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "2fa_success",
		Email:     user.Email,
		Success:   true,
	})

	return &LoginResult{
		Token: token,
		User:  &UserResponse{Email: user.Email, Role: user.Role.String()},
	}, nil
}

// EnableTwoFactor generates and stores a fresh TOTP secret for the caller and
// returns the enrollment material (secret, otpauth URI, QR data URL).
func (s *AuthService) EnableTwoFactor(ctx context.Context, email string) (*TwoFactorSetup, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	secret, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.EnableTwoFactor(ctx, user.Email, secret); err != nil {
		s.logger.Error("failed to enable 2fa", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	uri := s.totp.EnrollmentURI(secret, user.Email)

	qr, err := s.totp.EnrollmentQR(uri)
	if err != nil {
		s.logger.Error("failed to render enrollment QR", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "2fa_enabled",
		Email:     user.Email,
		Success:   true,
	})

	return &TwoFactorSetup{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
	}, nil
}
