package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caremypark/api/internal/models"
	pkglogger "github.com/caremypark/api/pkg/logger"
)

const (
	// ReferencePrefix is the fixed prefix of every report reference id
	ReferencePrefix = "CMP"

	// referenceIDAttempts bounds the retry loop on reference-id collisions
	referenceIDAttempts = 3

	// ListPageSize caps every list query
	ListPageSize = 50
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReportRepository defines the persistence operations the lifecycle needs.
// The storage layer guarantees uniqueness of reference_id: a colliding insert
// fails with models.ErrConflict.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	GetByReferenceID(ctx context.Context, referenceID string) (*models.Report, error)
	UpdateStatus(ctx context.Context, referenceID string, status models.ReportStatus, priority *models.ReportPriority, at time.Time) (*models.Report, error)
	Query(ctx context.Context, filter models.ReportFilter, limit int) ([]*models.Report, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// ReportService drives the report lifecycle: creation with reference-id
// allocation, status transitions, and role-aware visibility.
type ReportService struct {
	repo        ReportRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewReportService creates a new ReportService
func NewReportService(repo ReportRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *ReportService {
	return &ReportService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateReportInput carries the reporter-supplied fields. Photos are
// stored-file references produced by the upload collaborator.
type CreateReportInput struct {
	ProblemType string
	Description string
	Location    string
	IsAnonymous bool
	Photos      []string
}

// Create allocates a reference id and inserts the report with lifecycle
// defaults. The generator alone does not guarantee uniqueness; the unique
// constraint does, and a collision is retried with a fresh id up to
// referenceIDAttempts times before failing loudly.
func (s *ReportService) Create(ctx context.Context, owner models.Identity, input CreateReportInput) (*models.Report, error) {
	input.ProblemType = strings.TrimSpace(input.ProblemType)
	if input.ProblemType == "" {
		return nil, models.ErrBadRequest
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, models.ErrBadRequest
	}
	if input.Location == "" {
		input.Location = "Unknown"
	}
	if input.Photos == nil {
		input.Photos = []string{}
	}

	var created *models.Report

	for attempt := 0; attempt < referenceIDAttempts; attempt++ {
		referenceID, err := generateReferenceID()
		if err != nil {
			s.logger.Error("failed to generate reference id", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		now := time.Now().UTC()
		report := &models.Report{
			ReferenceID: referenceID,
			UserEmail:   owner.Email, // Stored unconditionally; anonymity only affects views
			ProblemType: input.ProblemType,
			Description: input.Description,
			Location:    input.Location,
			Status:      models.StatusSubmitted,
			Priority:    models.PriorityMedium,
			IsAnonymous: input.IsAnonymous,
			Photos:      input.Photos,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		created, err = s.repo.Create(ctx, report)
		if err == nil {
			break
		}
		if errors.Is(err, models.ErrConflict) {
			s.logger.Warn("reference id collision, regenerating",
				slog.String("reference_id", referenceID),
				slog.Int("attempt", attempt+1))
			created = nil
			continue
		}
		s.logger.Error("failed to create report", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if created == nil {
		s.logger.Error("reference id generation exhausted", slog.Int("attempts", referenceIDAttempts))
		return nil, models.ErrConflict
	}

	s.auditLogger.LogReportAction("report_created", created.ReferenceID, map[string]string{
		"problem_type": created.ProblemType,
	})

	return created, nil
}

// Transition applies a status (and optional priority) change. Authority only;
// any valid status may follow any other.
func (s *ReportService) Transition(ctx context.Context, callerRole models.Role, referenceID, newStatus, newPriority string) (*models.Report, error) {
	if callerRole != models.RoleAuthority {
		return nil, models.ErrInsufficientRole
	}

	status, err := models.ParseReportStatus(newStatus)
	if err != nil {
		return nil, models.ErrInvalidStatus
	}

	var priority *models.ReportPriority
	if newPriority != "" {
		p, err := models.ParseReportPriority(newPriority)
		if err != nil {
			return nil, models.ErrInvalidPriority
		}
		priority = &p
	}

	updated, err := s.repo.UpdateStatus(ctx, referenceID, status, priority, time.Now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update report status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogReportAction("report_transitioned", referenceID, map[string]string{
		"status": string(status),
	})

	return s.renderFor(callerRole, updated), nil
}

// List returns reports visible to the caller, newest first, capped at
// ListPageSize. Visitors only ever see their own reports: the ownership
// filter replaces whatever filters were supplied.
func (s *ReportService) List(ctx context.Context, caller models.Identity, filter models.ReportFilter) ([]*models.Report, error) {
	if caller.Role == models.RoleVisitor {
		filter = models.ReportFilter{UserEmail: caller.Email}
	} else {
		filter.UserEmail = ""
	}

	reports, err := s.repo.Query(ctx, filter, ListPageSize)
	if err != nil {
		s.logger.Error("failed to query reports", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rendered := make([]*models.Report, len(reports))
	for i, report := range reports {
		rendered[i] = s.renderFor(caller.Role, report)
	}

	return rendered, nil
}

// GetByReference fetches a single report. Visitors can only fetch their own.
func (s *ReportService) GetByReference(ctx context.Context, caller models.Identity, referenceID string) (*models.Report, error) {
	report, err := s.repo.GetByReferenceID(ctx, referenceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get report", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if caller.Role == models.RoleVisitor && report.UserEmail != caller.Email {
		return nil, models.ErrForbidden
	}

	return s.renderFor(caller.Role, report), nil
}

// Statistics aggregates dashboard numbers. Authority only.
func (s *ReportService) Statistics(ctx context.Context, callerRole models.Role) (*models.Statistics, error) {
	if callerRole != models.RoleAuthority {
		return nil, models.ErrInsufficientRole
	}

	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		s.logger.Error("failed to compute statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return stats, nil
}

// renderFor applies the anonymity rule: authority-facing views of anonymous
// reports carry the sentinel owner. The stored report is never mutated.
func (s *ReportService) renderFor(viewerRole models.Role, report *models.Report) *models.Report {
	if viewerRole != models.RoleAuthority || !report.IsAnonymous {
		return report
	}

	masked := *report
	masked.UserEmail = models.AnonymousOwner
	return &masked
}

// generateReferenceID combines the current UTC date with six random
// characters: CMP-YYYYMMDD-XXXXXX. Bytes outside the largest multiple of the
// charset size are rejected so every character is drawn uniformly.
func generateReferenceID() (string, error) {
	const limit = 256 - 256%len(referenceCharset)

	suffix := make([]byte, 0, 6)
	buf := make([]byte, 16)
	for len(suffix) < cap(suffix) {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			suffix = append(suffix, referenceCharset[int(b)%len(referenceCharset)])
			if len(suffix) == cap(suffix) {
				break
			}
		}
	}

	return fmt.Sprintf("%s-%s-%s", ReferencePrefix, time.Now().UTC().Format("20060102"), suffix), nil
}
