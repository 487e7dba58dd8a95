package performance_test

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/service"
)

func TestActionLogWebsocketP95Under250ms(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	adminHandler := handler.NewAdminHandler(nil, &stubActivityService{}, zerolog.Nop())

	adminGroup := app.Group("/api/v1/admin", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "admin-1")
		c.Locals(middleware.LocalUserRole, "admin")
		return c.Next()
	})
	adminHandler.Register(adminGroup)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/admin/logs/ws"
	clients := 200
	durations := make([]time.Duration, 0, clients)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	for i := 0; i < clients; i++ {
		start := time.Now()
		conn, resp, err := dialer.Dial(url, http.Header{"X-Correlation-ID": {"perf-" + strconv.Itoa(i)}})
		if err != nil {
			t.Fatalf("websocket dial failed: %v", err)
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		var entry dto.ActionLogResponse
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&entry); err != nil {
			t.Fatalf("failed to read action log entry: %v", err)
		}
		if entry.Action != "student_enrolled" {
			t.Fatalf("unexpected action %q", entry.Action)
		}
		_ = conn.Close()

		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := percentile(durations, 0.95)

	if p95 > 250*time.Millisecond {
		t.Fatalf("expected websocket P95 <= 250ms, got %s", p95)
	}
}

func TestActionLogWebsocketRejectsNonAdmin(t *testing.T) {
	app := fiber.New()
	adminHandler := handler.NewAdminHandler(nil, &stubActivityService{}, zerolog.Nop())
	adminHandler.Register(app.Group("/api/v1/admin", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "student-1")
		c.Locals(middleware.LocalUserRole, "student")
		return c.Next()
	}))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/admin/logs/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected the upgrade to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
	_ = resp.Body.Close()
}

func percentile(values []time.Duration, pct float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	index := int(math.Ceil(pct*float64(len(values)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

type stubActivityService struct{}

func (s *stubActivityService) Record(_ context.Context, caller policy.Caller, entry service.ActionEntry) (dto.ActionLogResponse, error) {
	return dto.ActionLogResponse{Action: entry.Action, PerformedBy: caller.ID, CreatedAt: time.Now().UTC()}, nil
}

func (s *stubActivityService) List(context.Context, policy.Caller, dto.ActionLogListRequest) ([]dto.ActionLogResponse, error) {
	return []dto.ActionLogResponse{}, nil
}

func (s *stubActivityService) Subscribe(caller policy.Caller) (<-chan dto.ActionLogResponse, func(), error) {
	if err := policy.ReadActionLog(caller); err != nil {
		return nil, nil, service.ErrForbidden
	}
	ch := make(chan dto.ActionLogResponse, 1)
	ch <- dto.ActionLogResponse{ID: 1, Action: "student_enrolled", PerformedBy: "student-1", EntityType: "course", EntityID: "1", CreatedAt: time.Now().UTC()}
	cleanup := func() { close(ch) }
	return ch, cleanup, nil
}

func (s *stubActivityService) Start(context.Context) {}
