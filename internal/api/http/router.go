package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Scans          *handlers.ScansHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. The short top-level paths are kept for
// the existing web client.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	requireUser := cfg.AuthMiddleware.Handle

	api := app.Group("/api", requireUser)
	complaints := api.Group("/complaints")
	complaints.Post("/", cfg.Complaints.Submit)
	complaints.Get("/my-complaints", cfg.Complaints.MyComplaints)
	complaints.Get("/user/:id", cfg.Complaints.UserComplaints)
	complaints.Get("/", auth.RequireAdmin(), cfg.Complaints.ListAll)

	scans := api.Group("/scans")
	scans.Post("/", cfg.Scans.Scan)
	scans.Get("/all", auth.RequireAdmin(), cfg.Scans.Reports)

	app.Post("/submit-complaint", requireUser, cfg.Complaints.Submit)
	app.Get("/user-complaints/:id", requireUser, cfg.Complaints.UserComplaints)
}
