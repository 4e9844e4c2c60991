package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseGraderReplyStrictJSON(t *testing.T) {
	result := parseGraderReply(`{"score":0.75,"feedback":"Good reasoning"}`)
	require.Equal(t, 0.75, result.Score)
	require.Equal(t, "Good reasoning", result.Feedback)
}

func TestParseGraderReplyClampsStrictScore(t *testing.T) {
	require.Equal(t, 1.0, parseGraderReply(`{"score":3.2,"feedback":"x"}`).Score)
	require.Equal(t, 0.0, parseGraderReply(`{"score":-0.5,"feedback":"x"}`).Score)
}

func TestParseGraderReplyLenientFallback(t *testing.T) {
	result := parseGraderReply("Considering the rubric, I'd say the Score: 0.4 because the diagram is incomplete.")
	require.Equal(t, 0.4, result.Score)
	require.Contains(t, result.Feedback, "diagram is incomplete")
}

func TestParseGraderReplyUnusableScoresZero(t *testing.T) {
	content := strings.Repeat("sin puntaje alguno ", 40)
	result := parseGraderReply(content)
	require.Equal(t, 0.0, result.Score)
	require.LessOrEqual(t, len([]rune(result.Feedback)), fallbackFeedbackLimit)
}

func TestParseGraderReplyNeverFails(t *testing.T) {
	for _, content := range []string{"", "score: nine", `{"score":"high"}`, "score 2"} {
		result := parseGraderReply(content)
		require.GreaterOrEqual(t, result.Score, 0.0)
		require.LessOrEqual(t, result.Score, 1.0)
	}
}

func TestBuildRubricPromptSections(t *testing.T) {
	prompt := buildRubricPrompt(RubricInput{
		Statement: "Dibuja el circuito.",
		Criteria:  []string{"Componentes", "Conexiones"},
		Weights:   []float64{0.7, 0.3},
		OCRText:   "R1 R2",
		SceneJSON: []byte(`{"objects": [1, 2]}`),
	})

	require.Contains(t, prompt, "[STATEMENT]\nDibuja el circuito.")
	require.Contains(t, prompt, "Criteria: Componentes | Conexiones")
	require.Contains(t, prompt, "Weights: 0.7, 0.3")
	require.Contains(t, prompt, "[ANSWER - OCR TEXT]\nR1 R2")
	require.Contains(t, prompt, `{"objects":[1,2]}`)
}

func TestBuildRubricPromptPlaceholders(t *testing.T) {
	prompt := buildRubricPrompt(RubricInput{Statement: "Explica."})

	require.Contains(t, prompt, "Criteria: General")
	require.Contains(t, prompt, "Weights: uniform")
	require.Contains(t, prompt, "(no text)")
	require.Contains(t, prompt, "(no scene)")
}

func TestTruncateSceneCapsLength(t *testing.T) {
	scene := []byte(`{"data":"` + strings.Repeat("a", sceneCharLimit*2) + `"}`)
	require.Len(t, truncateScene(scene), sceneCharLimit)
}

func TestTruncateSceneKeepsInvalidJSONVerbatim(t *testing.T) {
	require.Equal(t, "not json", truncateScene([]byte("not json")))
}

func TestNewOpenRouterGraderRequiresKey(t *testing.T) {
	_, err := NewOpenRouterGrader(OpenRouterConfig{})
	require.Error(t, err)
}

func TestGradeParsesModelReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "openai/gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		require.Contains(t, req.Messages[1].Content, "[RUBRIC]")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"score\":0.8,\"feedback\":\"Bien logrado\"}"}}]}`))
	}))
	defer server.Close()

	grader, err := NewOpenRouterGrader(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	result, err := grader.Grade(context.Background(), RubricInput{Statement: "Dibuja.", OCRText: "F=ma"})
	require.NoError(t, err)
	require.Equal(t, 0.8, result.Score)
	require.Equal(t, "Bien logrado", result.Feedback)
}

func TestGradeSurfacesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	grader, err := NewOpenRouterGrader(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = grader.Grade(context.Background(), RubricInput{Statement: "Dibuja."})
	require.Error(t, err)
}
