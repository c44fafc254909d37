package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/ivoo-app/reset-service/internal/handlers"
	"github.com/ivoo-app/reset-service/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	resetHandler *handlers.ResetHandler,
	auditHandler *handlers.AuditHandler,
) {
	rateLimitConfig := middleware.DefaultResetRateLimit()

	// Public reset endpoints, per-IP throttled
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/forgot-password", resetHandler.ForgotPassword)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Get("/auth/reset-password", resetHandler.ValidateResetToken)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/reset-password", resetHandler.ResetPassword)

	// Operator endpoints, reachable only from the internal network
	router.Get("/admin/reset-audit", auditHandler.GetTrail)
}
