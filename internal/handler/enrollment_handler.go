package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// EnrollmentHandler exposes enrollment endpoints, both the course-scoped
// roster routes and the enrollment-scoped ones.
type EnrollmentHandler struct {
	service service.EnrollmentService
	limiter fiber.Handler
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler. limiter guards the write
// routes and may be nil.
func NewEnrollmentHandler(service service.EnrollmentService, limiter fiber.Handler, logger zerolog.Logger) *EnrollmentHandler {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &EnrollmentHandler{
		service: service,
		limiter: limiter,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches the course-scoped routes to the courses group.
func (h *EnrollmentHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Post("/:id/enroll", h.limiter, h.enrollSelf)
	router.Delete("/:id/enroll", h.limiter, h.dropSelf)
	router.Get("/:id/enrollments", h.roster)
	router.Post("/:id/enrollments", h.limiter, h.enrollStudent)
	router.Delete("/:id/enrollments/:studentId", h.limiter, h.dropStudent)
}

// Register attaches the enrollment-scoped routes to the router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("/me", h.mine)
	router.Patch("/:id/status", h.updateStatus)
}

func (h *EnrollmentHandler) enrollSelf(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	return h.enroll(c, caller.ID)
}

func (h *EnrollmentHandler) enrollStudent(c *fiber.Ctx) error {
	var payload dto.EnrollStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(payload.StudentID) == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"student_id": "required"})
	}
	return h.enroll(c, payload.StudentID)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx, studentID string) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	enrollment, err := h.service.Enroll(requestContext(c), callerFromContext(c), courseID, studentID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to enroll student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", enrollment)
}

func (h *EnrollmentHandler) dropSelf(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	return h.drop(c, caller.ID)
}

func (h *EnrollmentHandler) dropStudent(c *fiber.Ctx) error {
	return h.drop(c, c.Params("studentId"))
}

func (h *EnrollmentHandler) drop(c *fiber.Ctx, studentID string) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.Drop(requestContext(c), callerFromContext(c), courseID, studentID); err != nil {
		return respondError(c, h.logger, err, "failed to drop enrollment")
	}
	return utils.SendSuccess(c, "enrollment dropped", nil)
}

func (h *EnrollmentHandler) roster(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	enrollments, err := h.service.ListForCourse(requestContext(c), callerFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list enrollments")
	}
	return utils.OK(c, enrollments, "enrollments retrieved", fiber.Map{"count": len(enrollments)})
}

func (h *EnrollmentHandler) mine(c *fiber.Ctx) error {
	enrollments, err := h.service.ListMine(requestContext(c), callerFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list enrollments")
	}
	return utils.OK(c, enrollments, "enrollments retrieved", fiber.Map{"count": len(enrollments)})
}

func (h *EnrollmentHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	var payload dto.UpdateEnrollmentStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	enrollment, err := h.service.UpdateStatus(requestContext(c), callerFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update enrollment status")
	}
	return utils.SendSuccess(c, "enrollment status updated", enrollment)
}
