package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// DashboardHandler serves the role-specific dashboard projection.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard route to the router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
}

func (h *DashboardHandler) dashboard(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	ctx := requestContext(c)
	meta := fiber.Map{"role": string(caller.Role)}

	var (
		payload interface{}
		err     error
	)
	switch caller.Role {
	case models.RoleAdmin:
		payload, err = h.service.Admin(ctx, caller)
	case models.RoleInstructor:
		payload, err = h.service.Instructor(ctx, caller)
	case models.RoleStudent:
		payload, err = h.service.Student(ctx, caller)
	default:
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.OK(c, payload, "dashboard retrieved", meta)
}
