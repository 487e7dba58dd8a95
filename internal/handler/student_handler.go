package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// StudentHandler exposes student record endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
	router.Put("/me", h.upsertMe)
	router.Get("/:id", h.get)
}

func (h *StudentHandler) me(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	student, err := h.service.Get(requestContext(c), caller, caller.ID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) upsertMe(c *fiber.Ctx) error {
	var payload dto.UpdateStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.UpsertMe(requestContext(c), callerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save student")
	}
	return utils.SendSuccess(c, "student saved", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.service.Get(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}
