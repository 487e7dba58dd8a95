package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// RequireRole rejects requests whose role claim is not one of roles. It must
// run after JWTProtected.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, raw := range roles {
		if role := models.ParseRole(raw); role.Valid() {
			allowed[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := models.ParseRole(localValue(c.Locals(LocalUserRole)))
		if !role.Valid() {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// localValue reads a string local, accepting the typed role as well.
func localValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case models.Role:
		return string(v)
	default:
		return ""
	}
}
