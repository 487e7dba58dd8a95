package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/enrollment-api/internal/config"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck reports whether one backing service answers.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	DemoEnabled  bool              `json:"demo_enabled"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports service identity and the state of every dependency.
// Any failing dependency turns the response into a 503 failure whose details
// carry the payload with status "degraded".
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			DemoEnabled: cfg.DemoEnabled,
		}

		if len(checks) > 0 {
			payload.Dependencies = make(map[string]string, len(checks))
		}
		for _, dep := range checks {
			ctx, cancel := context.WithTimeout(c.UserContext(), dependencyCheckTimeout)
			err := dep.Check(ctx)
			cancel()
			if err != nil {
				payload.Status = "degraded"
				payload.Dependencies[dep.Name] = err.Error()
				continue
			}
			payload.Dependencies[dep.Name] = "ok"
		}

		if payload.Status != "ok" {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
