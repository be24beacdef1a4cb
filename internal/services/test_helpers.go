package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/caremypark/api/internal/models"
	pkglogger "github.com/caremypark/api/pkg/logger"
)

// newTestLogger returns a logger that discards all output
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	CreateFunc          func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastLoginFunc func(ctx context.Context, email string, at time.Time) error
	EnableTwoFactorFunc func(ctx context.Context, email, secret string) error
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, email, at)
	}
	return nil
}

func (m *MockUserRepository) EnableTwoFactor(ctx context.Context, email, secret string) error {
	if m.EnableTwoFactorFunc != nil {
		return m.EnableTwoFactorFunc(ctx, email, secret)
	}
	return nil
}

// MockReportRepository implements ReportRepository for testing
type MockReportRepository struct {
	CreateFunc           func(ctx context.Context, report *models.Report) (*models.Report, error)
	GetByReferenceIDFunc func(ctx context.Context, referenceID string) (*models.Report, error)
	UpdateStatusFunc     func(ctx context.Context, referenceID string, status models.ReportStatus, priority *models.ReportPriority, at time.Time) (*models.Report, error)
	QueryFunc            func(ctx context.Context, filter models.ReportFilter, limit int) ([]*models.Report, error)
	StatisticsFunc       func(ctx context.Context) (*models.Statistics, error)
}

func (m *MockReportRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, report)
	}
	return report, nil
}

func (m *MockReportRepository) GetByReferenceID(ctx context.Context, referenceID string) (*models.Report, error) {
	if m.GetByReferenceIDFunc != nil {
		return m.GetByReferenceIDFunc(ctx, referenceID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReportRepository) UpdateStatus(ctx context.Context, referenceID string, status models.ReportStatus, priority *models.ReportPriority, at time.Time) (*models.Report, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, referenceID, status, priority, at)
	}
	return nil, models.ErrNotFound
}

func (m *MockReportRepository) Query(ctx context.Context, filter models.ReportFilter, limit int) ([]*models.Report, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, filter, limit)
	}
	return []*models.Report{}, nil
}

func (m *MockReportRepository) Statistics(ctx context.Context) (*models.Statistics, error) {
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx)
	}
	return &models.Statistics{}, nil
}
