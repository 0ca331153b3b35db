// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"crewpay/internal/handlers"
	"crewpay/internal/middleware"
	"crewpay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the constructed handlers and middleware. RateLimiter
// and Registry may be nil.
type Dependencies struct {
	Auth        *middleware.AuthMiddleware
	RateLimiter middleware.Limiter
	Registry    *prometheus.Registry

	PMRequests *handlers.PMRequestHandler
	Disputes   *handlers.DisputeHandler
	Jobs       *handlers.JobHandler
	Audit      *handlers.AuditHandler
	Health     *handlers.HealthHandler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "crewpay escrow API",
			"docs":    "/api",
		})
	})
	if deps.Health != nil {
		app.Get("/health", deps.Health.HealthCheck)
		app.Get("/health/cache", deps.Health.CacheStats)
	}
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", deps.Auth.Handler)

	// money-moving routes share one counter across instances
	moneyMoving := []fiber.Handler{}
	if deps.RateLimiter != nil {
		moneyMoving = append(moneyMoving, middleware.RateLimit(deps.RateLimiter))
	}
	guarded := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, moneyMoving...), h)
	}

	pm := api.Group("/pm-requests")
	pm.Post("/", middleware.HasPermission(models.PermissionPMRequestWrite), deps.PMRequests.Create)
	pm.Get("/:id", deps.PMRequests.Get)
	pm.Get("/:id/history", deps.PMRequests.History)
	pm.Post("/:id/line-items", deps.PMRequests.AddLineItem)
	pm.Put("/:id/manual-total", deps.PMRequests.SetManualTotal)
	pm.Post("/:id/submit", deps.PMRequests.Submit())
	pm.Post("/:id/approve", deps.PMRequests.Approve())
	pm.Post("/:id/amend", deps.PMRequests.RequestAmendment)
	pm.Post("/:id/reject", deps.PMRequests.Reject())
	pm.Post("/:id/revise", deps.PMRequests.Revise())
	pm.Post("/:id/payment", guarded(deps.PMRequests.StartPayment())...)
	pm.Post("/:id/funding", middleware.RequireRole(models.RoleAdmin, models.RoleSystem), deps.PMRequests.ConfirmFunding)
	pm.Post("/:id/receipts", deps.PMRequests.AddReceipt)
	pm.Post("/:id/receipts/submit", deps.PMRequests.SubmitReceipts())
	pm.Post("/:id/receipts/verify", deps.PMRequests.VerifyReceipts)
	pm.Post("/:id/release", guarded(deps.PMRequests.ReleaseFunds)...)

	disputes := api.Group("/disputes")
	disputes.Post("/", deps.Disputes.Escalate)
	disputes.Get("/:id", deps.Disputes.Get)
	disputes.Post("/:id/votes", middleware.HasPermission(models.PermissionDisputeVote), deps.Disputes.CastVote)
	disputes.Post("/:id/ai-opinion", middleware.RequireRole(models.RoleAdmin, models.RoleSystem), deps.Disputes.RecordAIOpinion)
	disputes.Get("/:id/tally", deps.Disputes.Tally)
	disputes.Patch("/:id/status", middleware.HasPermission(models.PermissionDisputeReview), deps.Disputes.Transition)

	jobs := api.Group("/jobs")
	jobs.Post("/:id/refund", guarded(deps.Jobs.Refund)...)
	jobs.Post("/:id/payout", guarded(deps.Jobs.ReleasePayout)...)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin, models.RoleSystem))
	admin.Get("/audit/payout-integrity", deps.Audit.PayoutIntegrity)
}
