package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/service"
)

type stubCourseService struct {
	course dto.CourseResponse
}

func (s stubCourseService) List(context.Context, policy.Caller, dto.CourseListRequest) ([]dto.CourseResponse, error) {
	return []dto.CourseResponse{s.course}, nil
}

func (s stubCourseService) Get(_ context.Context, _ policy.Caller, id uint) (dto.CourseResponse, error) {
	if id != s.course.ID {
		return dto.CourseResponse{}, service.ErrCourseNotFound
	}
	return s.course, nil
}

func (s stubCourseService) Create(context.Context, policy.Caller, dto.CreateCourseRequest) (dto.CourseResponse, error) {
	return s.course, nil
}

func (s stubCourseService) Update(context.Context, policy.Caller, uint, dto.UpdateCourseRequest) (dto.CourseResponse, error) {
	return dto.CourseResponse{}, service.ErrForbidden
}

func (s stubCourseService) Delete(context.Context, policy.Caller, uint) error {
	return nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func setupCourseApp() *fiber.App {
	now := time.Now().UTC()
	course := dto.CourseResponse{
		ID:                7,
		Name:              "Distributed Systems",
		Code:              "CS-540",
		Department:        "Computer Science",
		InstructorID:      "instructor-1",
		InstructorName:    "Grace Hopper",
		MaxCapacity:       30,
		CurrentEnrollment: 12,
		AvailableSeats:    18,
		CreatedAt:         now.Add(-time.Hour),
		UpdatedAt:         now,
	}

	h := handler.NewCourseHandler(stubCourseService{course: course}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/courses", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "instructor-1")
		c.Locals(middleware.LocalUserRole, "instructor")
		return c.Next()
	})
	h.Register(group)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestCourseContract(t *testing.T) {
	schema := compileSchema(t, "course.schema.json")
	app := setupCourseApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, schema.Validate(decodeBody(t, resp)))
}

func TestErrorContract(t *testing.T) {
	schema := compileSchema(t, "error.schema.json")
	app := setupCourseApp()

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/v1/courses/99", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/courses/not-a-number", "", http.StatusBadRequest},
		{http.MethodPatch, "/api/v1/courses/7", `{"name":"Renamed"}`, http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.path)
		require.NoError(t, schema.Validate(decodeBody(t, resp)), tc.path)
	}
}
