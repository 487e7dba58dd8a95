package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/utils"
)

const callerLocal = "caller"

// AdminHandler exposes counter reconciliation and the action log, including
// its live websocket stream.
type AdminHandler struct {
	enrollments service.EnrollmentService
	activity    service.ActivityService
	logger      zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(enrollments service.EnrollmentService, activity service.ActivityService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		enrollments: enrollments,
		activity:    activity,
		logger:      logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin routes to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/enrollments/reconcile", h.reconcile)
	router.Get("/logs", h.logs)

	router.Use("/logs/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		caller := callerFromContext(c)
		if err := policy.ReadActionLog(caller); err != nil {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		c.Locals(callerLocal, caller)
		return c.Next()
	})
	router.Get("/logs/ws", websocket.New(h.streamLogs))
}

func (h *AdminHandler) reconcile(c *fiber.Ctx) error {
	var payload dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if c.QueryBool("fix") {
		payload.Fix = true
	}

	report, err := h.enrollments.Reconcile(requestContext(c), callerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to reconcile enrollment counters")
	}
	return utils.SendSuccess(c, "enrollment counters checked", report)
}

func (h *AdminHandler) logs(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	req := dto.ActionLogListRequest{
		Action:      c.Query("action"),
		PerformedBy: c.Query("performed_by"),
		Limit:       limit,
	}

	entries, err := h.activity.List(requestContext(c), callerFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list action logs")
	}
	return utils.OK(c, entries, "action logs retrieved", fiber.Map{"count": len(entries)})
}

func (h *AdminHandler) streamLogs(conn *websocket.Conn) {
	caller, _ := conn.Locals(callerLocal).(policy.Caller)
	entries, cleanup, err := h.activity.Subscribe(caller)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "forbidden"))
		_ = conn.Close()
		return
	}
	defer cleanup()

	h.logger.Info().Str("user_id", caller.ID).Msg("action log stream connected")
	defer h.logger.Info().Str("user_id", caller.ID).Msg("action log stream disconnected")

	// The client never sends anything useful; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				h.logger.Warn().Err(err).Msg("failed to write action log entry")
				return
			}
		}
	}
}
