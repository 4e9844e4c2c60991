package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openai/gpt-4o-mini"

	// Hard cap on the serialized scene dump embedded in the prompt. The cut
	// may land mid-token; this is bandwidth control, not simplification.
	sceneCharLimit = 3000

	// Fallback feedback keeps at most this many characters of the raw reply.
	fallbackFeedbackLimit = 280
)

var (
	gradeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exammira",
		Subsystem: "ai",
		Name:      "grade_duration_seconds",
		Help:      "Duration of rubric grading requests",
	}, []string{"model"})

	gradeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exammira",
		Subsystem: "ai",
		Name:      "grade_failures_total",
		Help:      "Number of rubric grading request failures",
	}, []string{"model"})
)

var scorePattern = regexp.MustCompile(`(?i)score[^0-9]*([01](?:\.[0-9]+)?)`)

// OpenRouterConfig configures the rubric grader against an OpenAI-compatible
// chat completion endpoint.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenRouterGrader implements Grader using the OpenRouter chat completion API.
type OpenRouterGrader struct {
	client *openai.Client
	cfg    OpenRouterConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenRouterGrader builds a grader from the provided configuration.
func NewOpenRouterGrader(cfg OpenRouterConfig) (*OpenRouterGrader, error) {
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
		cfg.Temperature = 0.1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	tracer := otel.Tracer("github.com/innova-space-edu/exam-mira-api/pkg/ai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	client := openai.NewClientWithConfig(clientConfig)

	return &OpenRouterGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "openrouter_grader").Logger(),
	}, nil
}

// Grade sends the rubric prompt to the model and parses the reply. Malformed
// replies degrade through the lenient parser; only transport failures surface
// as errors.
func (g *OpenRouterGrader) Grade(parent context.Context, input RubricInput) (GradeResult, error) {
	ctx, span := g.tracer.Start(parent, "openrouter.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildRubricPrompt(input),
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	gradeDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, fmt.Errorf("openrouter grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from model")
		gradeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result := parseGraderReply(content)
	span.SetAttributes(attribute.Float64("grade.score", result.Score))

	return result, nil
}

func graderSystemPrompt() string {
	return `You are the AI grader for "Innova Space Education 2025". ` +
		"Grade against the rubric, score in the 0..1 range, and give brief, " +
		"specific feedback. Say when evidence is missing."
}

func buildRubricPrompt(input RubricInput) string {
	criteria := strings.Join(input.Criteria, " | ")
	if criteria == "" {
		criteria = "General"
	}

	weights := joinWeights(input.Weights)
	if weights == "" {
		weights = "uniform"
	}

	ocrText := input.OCRText
	if ocrText == "" {
		ocrText = "(no text)"
	}

	scene := truncateScene(input.SceneJSON)
	if scene == "" {
		scene = "(no scene)"
	}

	builder := strings.Builder{}
	builder.WriteString("[STATEMENT]\n")
	builder.WriteString(input.Statement)
	builder.WriteString("\n\n[RUBRIC]\nCriteria: ")
	builder.WriteString(criteria)
	builder.WriteString("\nWeights: ")
	builder.WriteString(weights)
	builder.WriteString("\n\n[ANSWER - OCR TEXT]\n")
	builder.WriteString(ocrText)
	builder.WriteString("\n\n[ANSWER - SCENE JSON, ABRIDGED]\n")
	builder.WriteString(scene)

	return builder.String()
}

func joinWeights(weights []float64) string {
	parts := make([]string, 0, len(weights))
	for _, w := range weights {
		parts = append(parts, strconv.FormatFloat(w, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}

func truncateScene(scene []byte) string {
	if len(scene) == 0 {
		return ""
	}

	compact := &bytes.Buffer{}
	serialized := scene
	if err := json.Compact(compact, scene); err == nil {
		serialized = compact.Bytes()
	}

	text := string(serialized)
	if len(text) > sceneCharLimit {
		text = text[:sceneCharLimit]
	}
	return text
}

// parseGraderReply is a two-stage parser: a strict JSON object parse first,
// then a lenient pattern scan over the raw reply. It never fails; an
// unusable reply scores 0.
func parseGraderReply(content string) GradeResult {
	var strict GradeResult
	if err := json.Unmarshal([]byte(content), &strict); err == nil {
		strict.Score = clampScore(strict.Score)
		return strict
	}

	result := GradeResult{Feedback: truncateRunes(content, fallbackFeedbackLimit)}
	if match := scorePattern.FindStringSubmatch(content); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			result.Score = clampScore(value)
		}
	}

	return result
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
