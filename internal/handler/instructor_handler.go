package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// InstructorHandler exposes instructor endpoints.
type InstructorHandler struct {
	service service.InstructorService
	logger  zerolog.Logger
}

// NewInstructorHandler constructs the handler.
func NewInstructorHandler(service service.InstructorService, logger zerolog.Logger) *InstructorHandler {
	return &InstructorHandler{
		service: service,
		logger:  logger.With().Str("component", "instructor_handler").Logger(),
	}
}

// Register attaches instructor routes to the router group.
func (h *InstructorHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Patch("/me", h.updateMe)
	router.Get("/:id", h.get)
}

func (h *InstructorHandler) list(c *fiber.Ctx) error {
	instructors, err := h.service.List(requestContext(c), callerFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list instructors")
	}
	return utils.OK(c, instructors, "instructors retrieved", fiber.Map{"count": len(instructors)})
}

func (h *InstructorHandler) get(c *fiber.Ctx) error {
	instructor, err := h.service.Get(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load instructor")
	}
	return utils.SendSuccess(c, "instructor retrieved", instructor)
}

func (h *InstructorHandler) updateMe(c *fiber.Ctx) error {
	var payload dto.UpdateInstructorRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	instructor, err := h.service.UpdateMe(requestContext(c), callerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update instructor")
	}
	return utils.SendSuccess(c, "instructor updated", instructor)
}
