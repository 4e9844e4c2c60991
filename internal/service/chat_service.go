package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/pkg/ai"
)

// ErrAssistantUnavailable indicates no chat model is configured.
var ErrAssistantUnavailable = errors.New("assistant is not configured")

const defaultChatPersona = "You are a helpful assistant for Innova Space Education 2025 teachers. " +
	"Answer clearly, cordially and precisely."

// ChatService relays teacher-assistant conversations to the model endpoint.
type ChatService interface {
	Relay(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error)
}

type chatService struct {
	completer ai.ChatCompleter
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewChatService constructs the relay. A nil completer leaves the assistant
// disabled rather than failing startup.
func NewChatService(completer ai.ChatCompleter, validate *validator.Validate, logger zerolog.Logger) ChatService {
	return &chatService{
		completer: completer,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "chat_service").Logger(),
	}
}

func (s *chatService) Relay(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatResponse{}, err
	}

	if s.completer == nil {
		return dto.ChatResponse{}, ErrAssistantUnavailable
	}

	system := req.System
	if system == "" {
		system = defaultChatPersona
	}

	messages := make([]ai.ChatMessage, 0, len(req.Messages))
	for _, message := range req.Messages {
		messages = append(messages, ai.ChatMessage{
			Role:    message.Role,
			Content: s.sanitizer.Sanitize(message.Content),
		})
	}

	reply, err := s.completer.Complete(ctx, system, messages)
	if err != nil {
		return dto.ChatResponse{}, fmt.Errorf("assistant relay: %w", err)
	}

	s.logger.Debug().Int("turns", len(messages)).Msg("assistant reply relayed")

	return dto.ChatResponse{Reply: reply}, nil
}
