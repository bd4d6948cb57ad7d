package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/medical-portal/internal/api/http/handlers"
	"github.com/spec-kit/medical-portal/internal/auth"
	"github.com/spec-kit/medical-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	AdminUsers     *handlers.AdminUsersHandler
	AdminRequests  *handlers.AdminRequestsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)
	api.Post("/logout", cfg.AuthMiddleware.Optional, cfg.Users.Logout)
	api.Get("/check-session", cfg.AuthMiddleware.Optional, cfg.Users.CheckSession)

	user := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireUser()}
	api.Post("/requests", with(user, cfg.Requests.Create)...)
	api.Get("/requests", with(user, cfg.Requests.List)...)
	api.Get("/requests/:id", with(user, cfg.Requests.Get)...)
	api.Get("/profile", with(user, cfg.Users.Profile)...)
	api.Put("/profile", with(user, cfg.Users.UpdateProfile)...)
	api.Get("/pdf/user-files", with(user, cfg.Requests.ListFiles)...)
	api.Get("/pdf/requests/:id/download", with(user, cfg.Requests.Download)...)

	api.Post("/admin/login", cfg.AdminUsers.Login)

	// registered after /admin/login so the login route stays public
	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.AdminUsers.ListUsers)
	admin.Get("/users/:id", cfg.AdminUsers.GetUser)
	admin.Patch("/users/:id", cfg.AdminUsers.UpdateUser)
	admin.Post("/users/:id/block", cfg.AdminUsers.BlockUser)
	admin.Post("/users/:id/unblock", cfg.AdminUsers.UnblockUser)
	admin.Delete("/users/:id", cfg.AdminUsers.DeleteUser)
	admin.Get("/statistics", cfg.AdminUsers.Statistics)
	admin.Get("/export", cfg.AdminUsers.Export)

	admin.Get("/requests", cfg.AdminRequests.ListRequests)
	admin.Post("/requests/cleanup", cfg.AdminRequests.CleanupOrphans)
	admin.Get("/requests/:id", cfg.AdminRequests.GetRequest)
	admin.Patch("/requests/:id/status", cfg.AdminRequests.UpdateStatus)
	admin.Post("/requests/:id/process", cfg.AdminRequests.Process)
	admin.Post("/requests/:id/file", cfg.AdminRequests.AttachFile)
	admin.Get("/requests/:id/file", cfg.AdminRequests.DownloadFile)
	admin.Delete("/requests/:id/file", cfg.AdminRequests.DetachFile)
	admin.Get("/files", cfg.AdminRequests.ListFiles)
}

// with appends handler to a copy of the middleware chain.
func with(chain []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, handler)
}
