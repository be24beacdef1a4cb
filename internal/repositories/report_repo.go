package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/caremypark/api/internal/database"
	"github.com/caremypark/api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{pool: db.Pool}
}

const reportColumns = `id, reference_id, user_email, problem_type, description, location, status, priority, is_anonymous, photos, created_at, updated_at`

func scanReportRow(scanner rowScanner) (*models.Report, error) {
	var report models.Report
	var status, priority string

	err := scanner.Scan(
		&report.ID, &report.ReferenceID, &report.UserEmail,
		&report.ProblemType, &report.Description, &report.Location,
		&status, &priority, &report.IsAnonymous, &report.Photos,
		&report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	report.Status = models.ReportStatus(status)
	report.Priority = models.ReportPriority(priority)

	return &report, nil
}

func scanReportRows(rows pgx.Rows) ([]*models.Report, error) {
	defer rows.Close()

	reports := make([]*models.Report, 0)

	for rows.Next() {
		report, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reports, nil
}

// Create inserts a report. The unique constraint on reference_id rejects a
// colliding id with models.ErrConflict; the service retries generation.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	report.ID = uuid.New().String()

	query := `
		INSERT INTO reports (id, reference_id, user_email, problem_type, description, location, status, priority, is_anonymous, photos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + reportColumns

	return scanReportRow(r.pool.QueryRow(ctx, query,
		report.ID, report.ReferenceID, report.UserEmail,
		report.ProblemType, report.Description, report.Location,
		string(report.Status), string(report.Priority), report.IsAnonymous,
		report.Photos, report.CreatedAt, report.UpdatedAt,
	))
}

func (r *ReportRepository) GetByReferenceID(ctx context.Context, referenceID string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE reference_id = $1`

	return scanReportRow(r.pool.QueryRow(ctx, query, referenceID))
}

// UpdateStatus applies a lifecycle transition. Priority is updated only when
// non-nil. updated_at advances on every transition.
func (r *ReportRepository) UpdateStatus(ctx context.Context, referenceID string, status models.ReportStatus, priority *models.ReportPriority, at time.Time) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $1, priority = COALESCE($2, priority), updated_at = $3
		WHERE reference_id = $4
		RETURNING ` + reportColumns

	var priorityArg *string
	if priority != nil {
		p := string(*priority)
		priorityArg = &p
	}

	return scanReportRow(r.pool.QueryRow(ctx, query, string(status), priorityArg, at, referenceID))
}

// Query returns reports matching the filter, newest first, capped at limit.
// Empty filter fields are not applied.
func (r *ReportRepository) Query(ctx context.Context, filter models.ReportFilter, limit int) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	args := make([]interface{}, 0, 5)

	if filter.UserEmail != "" {
		args = append(args, filter.UserEmail)
		query += fmt.Sprintf(" AND user_email = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ProblemType != "" {
		args = append(args, filter.ProblemType)
		query += fmt.Sprintf(" AND problem_type = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	return scanReportRows(rows)
}

// Statistics aggregates report counts for the authority dashboard.
func (r *ReportRepository) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{
		ReportsByType: make(map[string]int64),
		WeeklyTrend:   make([]models.DailyCount, 0, 7),
	}

	countQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			COUNT(*) FILTER (WHERE status = 'in_process')
		FROM reports
	`
	err := r.pool.QueryRow(ctx, countQuery).Scan(
		&stats.TotalReports, &stats.ResolvedReports, &stats.InProgressReports,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if stats.TotalReports > 0 {
		stats.ResolutionRate = float64(stats.ResolvedReports) / float64(stats.TotalReports) * 100
	}

	typeRows, err := r.pool.Query(ctx, `SELECT problem_type, COUNT(*) FROM reports GROUP BY problem_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var problemType string
		var count int64
		if err := typeRows.Scan(&problemType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ReportsByType[problemType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating type counts: %w", err)
	}

	trendQuery := `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM reports
		WHERE created_at >= NOW() - INTERVAL '7 days'
		GROUP BY day
		ORDER BY day
	`
	trendRows, err := r.pool.Query(ctx, trendQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly trend: %w", err)
	}
	defer trendRows.Close()

	for trendRows.Next() {
		var dc models.DailyCount
		if err := trendRows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		stats.WeeklyTrend = append(stats.WeeklyTrend, dc)
	}
	if err := trendRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly trend: %w", err)
	}

	return stats, nil
}
