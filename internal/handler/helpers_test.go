package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrCourseNotFound, fiber.StatusNotFound},
		{service.ErrDemoDisabled, fiber.StatusNotFound},
		{fmt.Errorf("%w: not your course", service.ErrForbidden), fiber.StatusForbidden},
		{service.ErrCapacityExceeded, fiber.StatusConflict},
		{service.ErrDuplicateEnrollment, fiber.StatusConflict},
		{service.ErrInvalidTransition, fiber.StatusConflict},
		{service.ErrCourseCodeTaken, fiber.StatusConflict},
		{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{service.ErrProfile, fiber.StatusUnprocessableEntity},
		{fmt.Errorf("%w: name is empty", service.ErrValidation), fiber.StatusBadRequest},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, zerolog.Nop(), tc.err, "request failed")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRespondErrorValidationDetails(t *testing.T) {
	type payload struct {
		StudentID   string `validate:"required"`
		MaxCapacity int    `validate:"required,gt=0"`
	}
	validationErr := validator.New().Struct(payload{})
	require.Error(t, validationErr)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, zerolog.Nop(), validationErr, "request failed")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, map[string]string{"student_id": "required", "max_capacity": "required"}, body.Details)
}

func TestCallerFromContext(t *testing.T) {
	app := fiber.New()
	app.Get("/:role", func(c *fiber.Ctx) error {
		if role := c.Params("role"); role != "none" {
			c.Locals(middleware.LocalUserID, "user-1")
			c.Locals(middleware.LocalUserRole, role)
			c.Locals(middleware.LocalSessionID, "session-1")
		}
		caller := callerFromContext(c)
		return c.JSON(fiber.Map{"id": caller.ID, "role": caller.Role, "session": caller.SessionID, "auth": caller.Authenticated})
	})

	read := func(path string) map[string]interface{} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	instructor := read("/instructor")
	require.Equal(t, "user-1", instructor["id"])
	require.Equal(t, string(models.RoleInstructor), instructor["role"])
	require.Equal(t, "session-1", instructor["session"])
	require.Equal(t, true, instructor["auth"])

	require.Equal(t, false, read("/superuser")["auth"])
	require.Equal(t, false, read("/none")["auth"])
}

func TestToSnakeCase(t *testing.T) {
	require.Equal(t, "max_capacity", toSnakeCase("MaxCapacity"))
	require.Equal(t, "name", toSnakeCase("Name"))
	require.Equal(t, "department", toSnakeCase("department"))
	require.Equal(t, "student_id", toSnakeCase("StudentID"))
	require.Equal(t, "http_status", toSnakeCase("HTTPStatus"))
}
