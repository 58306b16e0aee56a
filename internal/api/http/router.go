package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/api/http/handlers"
	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/config"
)

// NewApp creates the fiber application. Routing is case sensitive so the
// router and the access policy see the same paths.
func NewApp(cfg config.AppConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:       cfg.Name,
		CaseSensitive: true,
		ReadTimeout:   cfg.RequestTimeout(),
		ErrorHandler:  fallbackErrorHandler,
	})
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Employees   *handlers.EmployeesHandler
	Departments *handlers.DepartmentsHandler
	Reports     *handlers.ReportsHandler
	Gate        *auth.Gate
	Policy      *auth.Policy
	RateLimit   fiber.Handler
	Logger      *zap.Logger
}

// RegisterRoutes wires HTTP routes. Every request passes the authentication
// gate and the static access policy before reaching a handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle, auth.Authorize(cfg.Policy, cfg.Logger))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	limit := cfg.RateLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	authGroup := app.Group("/auth")
	authGroup.Post("/register", limit, cfg.Auth.Register)
	authGroup.Post("/login", limit, cfg.Auth.Login)

	employees := app.Group("/employees")
	employees.Get("", cfg.Employees.List)
	employees.Post("", cfg.Employees.Create)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Put("/:id", cfg.Employees.Update)
	employees.Delete("/:id", cfg.Employees.Delete)

	departments := app.Group("/departments")
	departments.Get("", cfg.Departments.List)
	departments.Get("/stats", cfg.Departments.Stats)
	departments.Post("", cfg.Departments.Create)
	departments.Put("/:id", cfg.Departments.Update)
	departments.Delete("/:id", cfg.Departments.Delete)

	reports := app.Group("/reports")
	reports.Get("", cfg.Reports.Mine)
	reports.Post("", cfg.Reports.Create)
	reports.Get("/department/:departmentId", cfg.Reports.ByDepartment)
	reports.Put("/:id", cfg.Reports.Update)
	reports.Delete("/:id", cfg.Reports.Delete)
}
