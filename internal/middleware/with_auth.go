package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/enrollment-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny        = "any"
	AuthRoleAdmin      = "admin"
	AuthRoleInstructor = "instructor"
	AuthRoleStudent    = "student"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with basic authentication/authorization guards.
// Row-level checks still happen in the services; this only rejects requests
// that can never succeed.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser
	if !requireUser && role != AuthRoleAny {
		requireUser = true
	}

	return func(c *fiber.Ctx) error {
		userID := localValue(c.Locals(LocalUserID))
		if requireUser && userID == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := strings.ToLower(localValue(c.Locals(LocalUserRole)))
		switch role {
		case AuthRoleInstructor:
			// Admins can do anything an instructor can.
			if currentRole != AuthRoleInstructor && currentRole != AuthRoleAdmin {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if currentRole != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}
