package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/timebank/internal/api/http/handlers"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Session        *handlers.SessionHandler
	Students       *handlers.StudentsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	RateLimit      config.RateLimitConfig
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)
	app.Post("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	limiter := newLoginRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst)
	app.Post("/stu/login", limiter.Handle, cfg.Session.StudentLogin)
	app.Post("/sta/login", limiter.Handle, cfg.Session.StaffLogin)

	authenticated := cfg.AuthMiddleware.Handle
	app.Post("/logout", authenticated, auth.RequireAnyRole(), cfg.Session.Logout)

	students := app.Group("/stu", authenticated, auth.RequireStudent())
	students.Post("/updatePointsRequest", cfg.Students.UpdatePointsRequest)
	students.Get("/details", cfg.Students.Details)

	staff := app.Group("/sta", authenticated, auth.RequireStaff())
	staff.Post("/validatePointsRequest", cfg.Staff.ValidatePointsRequest)
	staff.Post("/recalculate", cfg.Staff.Recalculate)
}
