package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/innova-space-edu/exam-mira-api/internal/config"
	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/handler"
	"github.com/innova-space-edu/exam-mira-api/internal/models"
	"github.com/innova-space-edu/exam-mira-api/internal/repository"
	"github.com/innova-space-edu/exam-mira-api/internal/router"
	"github.com/innova-space-edu/exam-mira-api/internal/schema"
	"github.com/innova-space-edu/exam-mira-api/internal/service"
	"github.com/innova-space-edu/exam-mira-api/internal/utils"
)

func setupExamApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Exam{}, &models.ExamItem{},
		&models.Submission{}, &models.SubmissionSlide{},
		&models.GradeReport{}, &models.ItemScore{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	examValidator, err := schema.NewExamValidator()
	require.NoError(t, err)

	examRepo := repository.NewExamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	examService := service.NewExamService(examRepo, validate, examValidator, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, nil, validate, logger)
	gradingService := service.NewGradingService(nil, nil, submissionRepo, reportRepo, nil, 0, nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		ExamHandler:       handler.NewExamHandler(examService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, gradingService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", "teacher-1")
			return c.Next()
		},
	})

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (int, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, buf.Bytes()
}

func TestExamAndSubmissionLifecycle(t *testing.T) {
	app := setupExamApp(t)

	status, body := postJSON(t, app, "/api/v2/exams", dto.ExamCreateRequest{
		Title: "Proporciones",
		Items: []dto.ItemPayload{
			{ID: "q1", Type: dto.ItemTypeNumeric, Answer: &dto.NumericValue{Values: []float64{12}}, Tolerance: 0.5},
			{ID: "q2", Type: dto.ItemTypeOpenDrawing, Prompt: "Dibuja la proporción."},
		},
	})
	require.Equal(t, fiber.StatusCreated, status)

	var created struct {
		Success bool             `json:"success"`
		Data    dto.ExamResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.True(t, created.Success)
	require.NotEmpty(t, created.Data.PublicID)
	require.Len(t, created.Data.Items, 2)

	status, body = postJSON(t, app, "/api/v2/submissions", dto.SubmissionCreateRequest{
		ExamID:  created.Data.PublicID,
		Student: json.RawMessage(`{"name":"Ana"}`),
		Slides: []dto.SlidePayload{
			{ItemID: "q1", Answer: &dto.NumericValue{Values: []float64{12.3}}},
		},
	})
	require.Equal(t, fiber.StatusCreated, status)

	var stored struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &stored))
	require.Equal(t, models.SubmissionStatusReceived, stored.Data.Status)

	status, body = postJSON(t, app, fmt.Sprintf("/api/v2/submissions/%d/grade", stored.Data.ID), nil)
	require.Equal(t, fiber.StatusOK, status)

	var graded struct {
		Success bool            `json:"success"`
		Data    dto.GradeReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &graded))
	require.Equal(t, created.Data.PublicID, graded.Data.ExamID)
	require.Equal(t, 1.0, graded.Data.Total)
	// maxTotal counts numeric plus open-drawing; without a model the drawing scores 0.
	require.Equal(t, 2.0, graded.Data.MaxTotal)
	require.Equal(t, 3.5, graded.Data.Grade)

	// The submission is now flagged graded.
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, fmt.Sprintf("/api/v2/submissions/%d", stored.Data.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fetched struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	require.Equal(t, models.SubmissionStatusGraded, fetched.Data.Status)
}

func TestExamCreateRejectedBySchema(t *testing.T) {
	app := setupExamApp(t)

	status, body := postJSON(t, app, "/api/v2/exams", dto.ExamCreateRequest{
		Title: "Incompleto",
		Items: []dto.ItemPayload{{ID: "q1", Type: dto.ItemTypeNumeric}},
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	var decoded utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.False(t, decoded.Success)
}

func TestSubmissionForUnknownExam(t *testing.T) {
	app := setupExamApp(t)

	status, _ := postJSON(t, app, "/api/v2/submissions", dto.SubmissionCreateRequest{
		ExamID: "exam-none",
		Slides: []dto.SlidePayload{{ItemID: "q1"}},
	})
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestGradeUnknownSubmission(t *testing.T) {
	app := setupExamApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v2/submissions/999/grade", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
