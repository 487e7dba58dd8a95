package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// AuthHandler exposes signup, login and demo login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/signup", h.signup)
	router.Post("/login", h.login)
	router.Post("/demo", h.demo)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Signup(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign up")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", response)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to log in")
	}
	return utils.SendSuccess(c, "logged in", response)
}

func (h *AuthHandler) demo(c *fiber.Ctx) error {
	var payload dto.DemoLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.DemoLogin(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to start demo session")
	}
	return utils.SendSuccess(c, "demo session started", response)
}
