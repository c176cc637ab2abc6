// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"net/http"
	"time"

	"donaid/internal/handlers"
	"donaid/internal/middleware"
	"donaid/internal/models"
	"donaid/internal/services/auth"
	"donaid/internal/services/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	StatsService stats.Service
	AuthService  auth.Service
	HealthChecks map[string]handlers.HealthCheckFunc
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// SnapshotTimeout bounds snapshot creation requests.
	SnapshotTimeout time.Duration
	Logger          *zap.Logger
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService, logger)
	statsHandler := handlers.NewStatsHandler(deps.StatsService, deps.SnapshotTimeout, logger)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, 2*time.Second)
	authMiddleware := middleware.NewAuthMiddleware(deps.AuthService, logger)

	app.Get("/health", healthHandler.HealthCheck)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to the donaid statistics API",
			"version": handlers.Version,
			"docs":    "/api",
		})
	})

	// Public endpoints (no auth required)
	api := app.Group("/api")
	api.Post("/login", authHandler.LoginUser)
	api.Post("/refresh", authHandler.RefreshToken)
	api.Post("/logout", authMiddleware.Handler, authHandler.LogoutUser)

	setupStatsRoutes(api, statsHandler, authMiddleware)
}

func setupStatsRoutes(api fiber.Router, h *handlers.StatsHandler, authMiddleware *middleware.AuthMiddleware) {
	admin := api.Group("/admin/stats", authMiddleware.Handler, middleware.AdminAuthMiddleware)

	read := middleware.HasPermission(models.PermissionStatsRead)
	write := middleware.HasPermission(models.PermissionStatsWrite)

	admin.Post("/snapshots", write, h.CreateSnapshot)
	admin.Get("/latest", read, h.GetLatestSnapshot)
	admin.Get("/summary", read, h.GetRangeSummary)
	admin.Get("/", read, h.GetSnapshotsInRange)
	admin.Get("/:id", read, h.GetSnapshot)
	admin.Post("/:id/categories", write, h.UpdateCategoryStats)
	admin.Post("/:id/payment-methods", write, h.UpdatePaymentMethodStats)
	admin.Post("/:id/growth", write, h.RecalculateGrowth)
	admin.Put("/:id/engagement", write, h.UpdateEngagement)
	admin.Put("/:id/performance", write, h.UpdatePerformance)
}
