package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/noah-isme/enrollment-api/internal/auth"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_role"
	LocalSessionID = "session_id"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// exposes the identity, role claim and demo session on the request locals.
func JWTProtected(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" && websocket.IsWebSocketUpgrade(c) {
			// Browsers cannot set headers on a websocket handshake.
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				authorization = "Bearer " + token
			}
		}
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return utils.SendError(c, fiber.StatusUnauthorized, "token expired")
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		role := models.ParseRole(claims.Role)
		if !role.Valid() {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUserRole, string(role))
		if claims.SessionID != "" {
			c.Locals(LocalSessionID, claims.SessionID)
		}

		return c.Next()
	}
}
