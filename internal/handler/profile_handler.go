package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// ProfileHandler exposes profile endpoints.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches profile routes to the router group.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
	router.Patch("/me", h.updateMe)
	router.Get("/:id/direct", h.direct)
	router.Get("/:id", h.get)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	caller := callerFromContext(c)
	profile, err := h.service.Get(requestContext(c), caller, caller.ID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) updateMe(c *fiber.Ctx) error {
	var payload dto.UpdateProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.UpdateMe(requestContext(c), callerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *ProfileHandler) get(c *fiber.Ctx) error {
	profile, err := h.service.Get(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *ProfileHandler) direct(c *fiber.Ctx) error {
	lookup, err := h.service.LookupDirect(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to look up profile")
	}
	return utils.SendSuccess(c, "profile retrieved", lookup)
}
