package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// CourseHandler exposes course catalogue endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course routes to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	req := dto.CourseListRequest{
		InstructorID: c.Query("instructor_id"),
		Department:   c.Query("department"),
		Limit:        limit,
	}

	courses, err := h.service.List(requestContext(c), callerFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, courses, "courses retrieved", fiber.Map{"count": len(courses)})
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.Get(requestContext(c), callerFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateCourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Create(requestContext(c), callerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create course")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.UpdateCourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.Update(requestContext(c), callerFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update course")
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.Delete(requestContext(c), callerFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete course")
	}
	return utils.SendSuccess(c, "course deleted", nil)
}
