package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ChatMessage is one conversational turn relayed to the model.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatCompleter produces an assistant reply for a conversation.
type ChatCompleter interface {
	Complete(ctx context.Context, system string, messages []ChatMessage) (string, error)
}

// OpenRouterChat implements ChatCompleter against the OpenRouter chat API.
type OpenRouterChat struct {
	client *openai.Client
	cfg    OpenRouterConfig
	tracer trace.Tracer
}

// NewOpenRouterChat builds the assistant relay client. The chat surface runs
// slightly warmer than the grader.
func NewOpenRouterChat(cfg OpenRouterConfig) (*OpenRouterChat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenRouterChat{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/innova-space-edu/exam-mira-api/pkg/ai"),
	}, nil
}

// Complete sends the conversation prefixed by the system persona and returns
// the first choice's reply.
func (c *OpenRouterChat) Complete(parent context.Context, system string, messages []ChatMessage) (string, error) {
	ctx, span := c.tracer.Start(parent, "openrouter.chat", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("chat.turns", len(messages)),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)+1),
	}

	request.Messages = append(request.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, message := range messages {
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openrouter chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from model")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
