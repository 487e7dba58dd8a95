package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/enrollment-api/internal/config"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ProfileHandler    *handler.ProfileHandler
	StudentHandler    *handler.StudentHandler
	InstructorHandler *handler.InstructorHandler
	CourseHandler     *handler.CourseHandler
	EnrollmentHandler *handler.EnrollmentHandler
	AdminHandler      *handler.AdminHandler
	DashboardHandler  *handler.DashboardHandler
	JWTMiddleware     fiber.Handler
	HealthChecks      []handler.DependencyCheck
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	// Everything below requires a token; row-level rules live in the services.
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(api.Group("/profiles", jwtMiddleware))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}
	if deps.InstructorHandler != nil {
		deps.InstructorHandler.Register(api.Group("/instructors", jwtMiddleware))
	}

	courses := api.Group("/courses", jwtMiddleware)
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses)
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.RegisterCourseRoutes(courses)
		deps.EnrollmentHandler.Register(api.Group("/enrollments", jwtMiddleware))
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin))
		deps.AdminHandler.Register(admin)
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware))
	}
}
