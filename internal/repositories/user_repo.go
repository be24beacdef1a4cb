package repositories

import (
	"context"
	"time"

	"github.com/caremypark/api/internal/database"
	"github.com/caremypark/api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (single row and multi-row results)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var role string
	var otpSecret *string
	var lastLogin *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &role,
		&user.TwoFactorEnabled, &otpSecret, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.Role = models.Role(role)
	if otpSecret != nil {
		user.OTPSecret = *otpSecret
	}
	user.LastLogin = lastLogin

	return &user, nil
}

const userColumns = `id, email, password_hash, role, two_factor_enabled, otp_secret, last_login, created_at, updated_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleVisitor
	}

	query := `
		INSERT INTO users (id, email, password_hash, role, two_factor_enabled, otp_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	var otpSecret *string
	if user.OTPSecret != "" {
		otpSecret = &user.OTPSecret
	}

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, string(user.Role),
		user.TwoFactorEnabled, otpSecret, user.CreatedAt, user.UpdatedAt,
	))
}

// UpdateLastLogin records a successful login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	query := `UPDATE users SET last_login = $1, updated_at = $1 WHERE email = $2`

	result, err := r.pool.Exec(ctx, query, at, email)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// EnableTwoFactor stores the TOTP secret and flips the 2FA flag. This is the
// only path that mutates otp_secret.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, email, secret string) error {
	query := `
		UPDATE users SET two_factor_enabled = TRUE, otp_secret = $1, updated_at = $2
		WHERE email = $3
	`

	result, err := r.pool.Exec(ctx, query, secret, time.Now(), email)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
