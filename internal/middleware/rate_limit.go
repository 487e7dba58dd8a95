package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/enrollment-api/internal/utils"
)

// RateLimit creates a per-identity rate limiter. Anonymous requests are keyed
// by client IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := localValue(c.Locals(LocalUserID))
			if userID == "" {
				userID = c.IP()
			}
			// Demo sessions share a sentinel id, so each session gets its own bucket.
			if session := localValue(c.Locals(LocalSessionID)); session != "" {
				userID = userID + ":" + session
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		},
	})
}
