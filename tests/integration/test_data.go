package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremypark/api/internal/models"
	"github.com/caremypark/api/pkg/auth"
)

// SeedUser inserts a test user with hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, role, two_factor_enabled, created_at, updated_at
	`

	var user models.User
	var roleStr string
	err = pool.QueryRow(ctx, query, uuid.New().String(), email, hashedPassword, string(role)).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&roleStr,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	user.Role = models.Role(roleStr)

	return &user, nil
}

// SeedTwoFactorUser inserts a user with 2FA already enabled
func SeedTwoFactorUser(ctx context.Context, pool *pgxpool.Pool, email, password, otpSecret string) (*models.User, error) {
	user, err := SeedUser(ctx, pool, email, password, models.RoleVisitor)
	if err != nil {
		return nil, err
	}

	query := `UPDATE users SET two_factor_enabled = TRUE, otp_secret = $1 WHERE email = $2`
	if _, err := pool.Exec(ctx, query, otpSecret, email); err != nil {
		return nil, fmt.Errorf("failed to enable 2fa: %w", err)
	}

	user.TwoFactorEnabled = true
	user.OTPSecret = otpSecret
	return user, nil
}

// SeedReport inserts a report directly, bypassing the service layer
func SeedReport(ctx context.Context, pool *pgxpool.Pool, referenceID, userEmail string, status models.ReportStatus, isAnonymous bool) (*models.Report, error) {
	query := `
		INSERT INTO reports (id, reference_id, user_email, problem_type, description, status, is_anonymous)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, reference_id, user_email, problem_type, description, location,
			status, priority, is_anonymous, photos, created_at, updated_at
	`

	var report models.Report
	var statusStr, priorityStr string
	err := pool.QueryRow(ctx, query,
		uuid.New().String(), referenceID, userEmail,
		"broken_bench", "seeded test report", string(status), isAnonymous,
	).Scan(
		&report.ID,
		&report.ReferenceID,
		&report.UserEmail,
		&report.ProblemType,
		&report.Description,
		&report.Location,
		&statusStr,
		&priorityStr,
		&report.IsAnonymous,
		&report.Photos,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	report.Status = models.ReportStatus(statusStr)
	report.Priority = models.ReportPriority(priorityStr)

	return &report, nil
}

// TestReferenceID builds a reference id in the production format with a fixed
// suffix, for seeding deterministic rows.
func TestReferenceID(suffix string) string {
	return fmt.Sprintf("CMP-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
