package routes

import (
	"github.com/caremypark/api/internal/auth"
	"github.com/caremypark/api/internal/handlers"
	"github.com/caremypark/api/internal/middleware"
	"github.com/caremypark/api/internal/models"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	qrHandler *handlers.QRHandler,
	uploadHandler *handlers.UploadHandler,
	gate *auth.Gate,
) {
	// Rate limiting for credential-bearing endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.Post("/api/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/api/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/api/verify-2fa", authHandler.VerifyTwoFactor)
	router.Get("/api/qr", qrHandler.LocationQR)
	router.Get("/uploads/{filename}", uploadHandler.ServeFile)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(gate))

		r.Post("/api/enable-2fa", authHandler.EnableTwoFactor)

		r.Post("/api/reports", reportHandler.CreateReport)
		r.Get("/api/reports", reportHandler.ListReports)
		r.Get("/api/reports/{referenceID}", reportHandler.GetReport)

		// Authority-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(gate, models.RoleAuthority))
			r.Put("/api/reports/{referenceID}/status", reportHandler.UpdateStatus)
			r.Get("/api/statistics", reportHandler.Statistics)
		})
	})
}
