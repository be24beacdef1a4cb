package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/caremypark/api/internal/auth"
	"github.com/caremypark/api/internal/models"
	"github.com/caremypark/api/internal/services"
	pkghttp "github.com/caremypark/api/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithIdentity adds an authenticated identity to request context for testing
// endpoints behind the auth middleware
func WithIdentity(req *http.Request, email string, role models.Role) *http.Request {
	identity := models.Identity{Email: email, Role: role}
	ctx := context.WithValue(req.Context(), auth.IdentityContextKey, identity)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc        func(ctx context.Context, email, password, role string) (*services.UserResponse, error)
	LoginFunc           func(ctx context.Context, email, password string) (*services.LoginResult, error)
	VerifyTwoFactorFunc func(ctx context.Context, email, code string) (*services.LoginResult, error)
	EnableTwoFactorFunc func(ctx context.Context, email string) (*services.TwoFactorSetup, error)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, role string) (*services.UserResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, email, password, role)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) VerifyTwoFactor(ctx context.Context, email, code string) (*services.LoginResult, error) {
	if m.VerifyTwoFactorFunc == nil {
		return nil, models.ErrInvalidOTP
	}
	return m.VerifyTwoFactorFunc(ctx, email, code)
}

func (m *MockAuthService) EnableTwoFactor(ctx context.Context, email string) (*services.TwoFactorSetup, error) {
	if m.EnableTwoFactorFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.EnableTwoFactorFunc(ctx, email)
}

// MockReportService implements ReportServiceInterface for testing
type MockReportService struct {
	CreateFunc         func(ctx context.Context, owner models.Identity, input services.CreateReportInput) (*models.Report, error)
	TransitionFunc     func(ctx context.Context, callerRole models.Role, referenceID, newStatus, newPriority string) (*models.Report, error)
	ListFunc           func(ctx context.Context, caller models.Identity, filter models.ReportFilter) ([]*models.Report, error)
	GetByReferenceFunc func(ctx context.Context, caller models.Identity, referenceID string) (*models.Report, error)
	StatisticsFunc     func(ctx context.Context, callerRole models.Role) (*models.Statistics, error)
}

func (m *MockReportService) Create(ctx context.Context, owner models.Identity, input services.CreateReportInput) (*models.Report, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrBadRequest
	}
	return m.CreateFunc(ctx, owner, input)
}

func (m *MockReportService) Transition(ctx context.Context, callerRole models.Role, referenceID, newStatus, newPriority string) (*models.Report, error) {
	if m.TransitionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.TransitionFunc(ctx, callerRole, referenceID, newStatus, newPriority)
}

func (m *MockReportService) List(ctx context.Context, caller models.Identity, filter models.ReportFilter) ([]*models.Report, error) {
	if m.ListFunc == nil {
		return []*models.Report{}, nil
	}
	return m.ListFunc(ctx, caller, filter)
}

func (m *MockReportService) GetByReference(ctx context.Context, caller models.Identity, referenceID string) (*models.Report, error) {
	if m.GetByReferenceFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetByReferenceFunc(ctx, caller, referenceID)
}

func (m *MockReportService) Statistics(ctx context.Context, callerRole models.Role) (*models.Statistics, error) {
	if m.StatisticsFunc == nil {
		return nil, models.ErrInsufficientRole
	}
	return m.StatisticsFunc(ctx, callerRole)
}

// MockPhotoUploader implements PhotoUploader for testing
type MockPhotoUploader struct {
	AllowedFunc func(filename string) bool
	SaveFunc    func(prefix, filename string, src io.Reader) (string, error)
}

func (m *MockPhotoUploader) Allowed(filename string) bool {
	if m.AllowedFunc == nil {
		return true
	}
	return m.AllowedFunc(filename)
}

func (m *MockPhotoUploader) Save(prefix, filename string, src io.Reader) (string, error) {
	if m.SaveFunc == nil {
		return "/uploads/" + prefix + "_" + filename, nil
	}
	return m.SaveFunc(prefix, filename, src)
}
