package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/service"
)

// ChatHandler relays teacher assistant conversations. The wire shape stays
// compatible with the classroom front end: a bare reply object on success and
// {"error": ...} on failure.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler builds a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("", h.relay)
}

func (h *ChatHandler) relay(c *fiber.Ctx) error {
	var payload dto.ChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid chat request"})
	}

	reply, err := h.service.Relay(c.UserContext(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrAssistantUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "assistant unavailable"})
		case errors.As(err, &validationErrors):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErrors.Error()})
		default:
			h.logger.Error().Err(err).Msg("chat relay failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat relay failed"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(reply)
}
