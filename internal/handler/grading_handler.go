package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/middleware"
	"github.com/innova-space-edu/exam-mira-api/internal/service"
)

// GradingHandler exposes the grading entry point. The wire shapes predate
// this service: success is the bare report, failure is {"error": "..."}.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the grading routes to the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("", h.grade)

	router.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/stream", websocket.New(h.stream))
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var req dto.GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid grading request: " + err.Error()})
	}

	report, err := h.service.GradeSubmission(c.UserContext(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("grading failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

// GradeStreamMessage frames the websocket grading progress protocol: one
// "score" message per item, then a final "report" or "error".
type GradeStreamMessage struct {
	Type   string           `json:"type"`
	Score  *dto.ItemScore   `json:"score,omitempty"`
	Report *dto.GradeReport `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (h *GradingHandler) stream(conn *websocket.Conn) {
	defer conn.Close()

	ctx := context.Background()
	if stored, ok := conn.Locals("request_ctx").(context.Context); ok && stored != nil {
		ctx = stored
	}

	var req dto.GradeRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(GradeStreamMessage{Type: "error", Error: "invalid grading request"})
		return
	}

	report, err := h.service.GradeSubmissionProgress(ctx, req, func(score dto.ItemScore) {
		_ = conn.WriteJSON(GradeStreamMessage{Type: "score", Score: &score})
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("streamed grading failed")
		_ = conn.WriteJSON(GradeStreamMessage{Type: "error", Error: err.Error()})
		return
	}

	_ = conn.WriteJSON(GradeStreamMessage{Type: "report", Report: &report})
}
