package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/caremypark/api/internal/auth"
	"github.com/caremypark/api/internal/models"
	"github.com/caremypark/api/internal/services"
	pkghttp "github.com/caremypark/api/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReportServiceInterface defines the interface for report lifecycle logic
type ReportServiceInterface interface {
	Create(ctx context.Context, owner models.Identity, input services.CreateReportInput) (*models.Report, error)
	Transition(ctx context.Context, callerRole models.Role, referenceID, newStatus, newPriority string) (*models.Report, error)
	List(ctx context.Context, caller models.Identity, filter models.ReportFilter) ([]*models.Report, error)
	GetByReference(ctx context.Context, caller models.Identity, referenceID string) (*models.Report, error)
	Statistics(ctx context.Context, callerRole models.Role) (*models.Statistics, error)
}

// PhotoUploader stores an uploaded photo and returns its stored-file reference
type PhotoUploader interface {
	Allowed(filename string) bool
	Save(prefix, filename string, src io.Reader) (string, error)
}

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	service       ReportServiceInterface
	photos        PhotoUploader
	maxUploadSize int64
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportServiceInterface, photos PhotoUploader, maxUploadSize int64) *ReportHandler {
	return &ReportHandler{
		service:       service,
		photos:        photos,
		maxUploadSize: maxUploadSize,
	}
}

// UpdateStatusRequest represents the request body for a lifecycle transition
type UpdateStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Priority string `json:"priority" validate:"omitempty"`
}

// ReportResponse represents a report in HTTP responses
type ReportResponse struct {
	ReferenceID string   `json:"reference_id"`
	UserEmail   string   `json:"user_email"`
	ProblemType string   `json:"problem_type"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	IsAnonymous bool     `json:"is_anonymous"`
	Photos      []string `json:"photos"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func reportToResponse(report *models.Report) *ReportResponse {
	return &ReportResponse{
		ReferenceID: report.ReferenceID,
		UserEmail:   report.UserEmail,
		ProblemType: report.ProblemType,
		Description: report.Description,
		Location:    report.Location,
		Status:      string(report.Status),
		Priority:    string(report.Priority),
		IsAnonymous: report.IsAnonymous,
		Photos:      report.Photos,
		CreatedAt:   report.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   report.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateReport accepts a multipart form with report fields and photos. The
// photos are stored by the upload collaborator before the lifecycle records
// their references.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	input := services.CreateReportInput{
		ProblemType: r.FormValue("problem_type"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		IsAnonymous: r.FormValue("is_anonymous") == "true",
	}

	// Store uploads first; the lifecycle only records the references
	if r.MultipartForm != nil {
		uploadID := uuid.New().String()
		for _, fileHeader := range r.MultipartForm.File["photos"] {
			// Unsupported extensions are skipped, matching lenient intake
			if !h.photos.Allowed(fileHeader.Filename) {
				continue
			}

			file, err := fileHeader.Open()
			if err != nil {
				pkghttp.WriteBadRequest(w, "Unreadable photo upload")
				return
			}

			ref, err := h.photos.Save(uploadID, fileHeader.Filename, file)
			file.Close()
			if err != nil {
				pkghttp.WriteInternalError(w, "Failed to store photo")
				return
			}
			input.Photos = append(input.Photos, ref)
		}
	}

	report, err := h.service.Create(r.Context(), identity, input)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Problem type and description are required")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Could not allocate a reference id, please retry")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Report submitted successfully",
		"reference_id": report.ReferenceID,
		"report":       reportToResponse(report),
	})
}

// ListReports returns reports visible to the caller, with optional filters
// for authority callers.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	filter := models.ReportFilter{
		Status:      r.URL.Query().Get("status"),
		ProblemType: r.URL.Query().Get("problem_type"),
		Priority:    r.URL.Query().Get("priority"),
	}

	reports, err := h.service.List(r.Context(), identity, filter)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]*ReportResponse, len(reports))
	for i, report := range reports {
		responses[i] = reportToResponse(report)
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": responses})
}

// GetReport returns a single report by reference id
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	referenceID := chi.URLParam(r, "referenceID")

	report, err := h.service.GetByReference(r.Context(), identity, referenceID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Report not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Access denied")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"report": reportToResponse(report)})
}

// UpdateStatus applies a lifecycle transition (authority only)
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	referenceID := chi.URLParam(r, "referenceID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	report, err := h.service.Transition(r.Context(), identity.Role, referenceID, req.Status, req.Priority)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientRole):
			pkghttp.WriteForbidden(w, "Insufficient permissions")
		case errors.Is(err, models.ErrInvalidStatus):
			pkghttp.WriteBadRequest(w, "Status must be one of: submitted, in_process, resolved")
		case errors.Is(err, models.ErrInvalidPriority):
			pkghttp.WriteBadRequest(w, "Priority must be one of: low, medium, high")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Report not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Status updated successfully",
		"report":  reportToResponse(report),
	})
}

// Statistics returns the authority dashboard aggregates
func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	stats, err := h.service.Statistics(r.Context(), identity.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientRole):
			pkghttp.WriteForbidden(w, "Access denied")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
