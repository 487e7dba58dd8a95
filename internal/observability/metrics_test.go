package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesEnrollmentCollectors(t *testing.T) {
	Enrollments().WithLabelValues("enroll", "durable", "success").Inc()
	APIRequests().WithLabelValues("GET", "/api/v1/courses", "200").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "enrollment_operations_total"))
	require.True(t, strings.Contains(string(body), "enrollment_api_requests_total"))
}

func TestMetricsHandlerNegotiatesOpenMetrics(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("Accept", "application/openmetrics-text; version=1.0.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/openmetrics-text"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimSpace(string(body)), "# EOF"))
}
