package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/handlers"
	"github.com/ironvault/ironvault/internal/middleware"
	"github.com/ironvault/ironvault/internal/models"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	transferHandler *handlers.TransferHandler,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
	auditRecorder auth.UnauthorizedRecorder,
	ipConfig *pkghttp.IPConfig,
) {
	// Rate limiting config for credential endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig, ipConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig, ipConfig)).Post("/auth/register", authHandler.Register)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager))

		// Any authenticated user may view their own accounts and history
		r.Get("/accounts", accountHandler.ListAccounts)
		r.Get("/transactions", accountHandler.ListTransactions)

		// Customer-only fund movement
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auditRecorder, ipConfig, models.RoleCustomer))
			r.Post("/transfers", transferHandler.Transfer)
			r.Post("/deposits", transferHandler.Deposit)
		})

		// Manager-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auditRecorder, ipConfig, models.RoleManager))
			r.Get("/manager/accounts", accountHandler.ListAllCustomerAccounts)
			r.Delete("/manager/users/{id}", adminHandler.DeleteUser)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auditRecorder, ipConfig, models.RoleAdmin))
			r.Get("/admin/audit-logs", adminHandler.ListAuditLogs)
			r.Get("/admin/users", adminHandler.ListAllUsers)
			r.Patch("/admin/users/{id}", adminHandler.UpdateUser)
		})
	})
}
