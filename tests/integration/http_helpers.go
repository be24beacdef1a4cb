package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/caremypark/api/internal/auth"
	"github.com/caremypark/api/internal/config"
	"github.com/caremypark/api/internal/database"
	"github.com/caremypark/api/internal/handlers"
	middlewareCustom "github.com/caremypark/api/internal/middleware"
	"github.com/caremypark/api/internal/routes"
	"github.com/caremypark/api/internal/services"
	"github.com/caremypark/api/internal/storage"
	pkglogger "github.com/caremypark/api/pkg/logger"
)

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Config *config.Config

	TokenManager *auth.TokenManager
	logger       *slog.Logger
}

// NewTestServer wires a complete HTTP server against the test database, using
// the same construction order as the production entrypoint.
func NewTestServer(db *database.DB, uploadDir string) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:          "0",
			Env:           "test",
			ReportBaseURL: "https://caremypark.test/report",
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-32-characters-long-for-testing",
			TokenExpiry: 24 * time.Hour,
			TOTPIssuer:  "CareMyParkTest",
		},
		Uploads: config.UploadConfig{
			Dir:           uploadDir,
			MaxUploadSize: 16 << 20,
		},
	}

	userRepo, reportRepo := InitializeRepositories(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)
	gate := auth.NewGate(tokenManager)
	auditLogger := pkglogger.NewAuditLogger(logger)

	photoStore, err := storage.NewPhotoStore(cfg.Uploads.Dir)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(userRepo, tokenManager, totpManager, logger, auditLogger)
	reportService := services.NewReportService(reportRepo, logger, auditLogger)

	authHandler := handlers.NewAuthHandler(authService)
	reportHandler := handlers.NewReportHandler(reportService, photoStore, cfg.Uploads.MaxUploadSize)
	qrHandler := handlers.NewQRHandler(cfg.Server.ReportBaseURL)
	uploadHandler := handlers.NewUploadHandler(photoStore)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, reportHandler, qrHandler, uploadHandler, gate)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		Config:       cfg,
		TokenManager: tokenManager,
		logger:       logger,
	}, nil
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a bearer token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractToken pulls the bearer token out of a login or 2FA response
func ExtractToken(resp *http.Response) (token string, requires2FA bool, err error) {
	var body map[string]interface{}
	if err := ParseJSONResponse(resp, &body); err != nil {
		return "", false, err
	}

	if t, ok := body["token"].(string); ok {
		token = t
	}
	if r, ok := body["requires_2fa"].(bool); ok {
		requires2FA = r
	}

	return token, requires2FA, nil
}
