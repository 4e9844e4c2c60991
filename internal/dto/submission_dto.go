package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/innova-space-edu/exam-mira-api/internal/models"
)

// SubmissionCreateRequest stores a completed exam for later grading.
type SubmissionCreateRequest struct {
	ExamID  string          `json:"examId" validate:"required"`
	Student json.RawMessage `json:"student"`
	Slides  []SlidePayload  `json:"slides" validate:"required,min=1,dive"`
}

// SubmissionResponse summarizes a stored submission.
type SubmissionResponse struct {
	ID         uint            `json:"id"`
	ExamID     string          `json:"examId"`
	Student    json.RawMessage `json:"student,omitempty"`
	Status     string          `json:"status"`
	SlideCount int             `json:"slide_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewSubmissionModel converts an intake request into the storage model.
func NewSubmissionModel(req SubmissionCreateRequest, examID uint) (models.Submission, error) {
	submission := models.Submission{
		ExamID: examID,
		Status: models.SubmissionStatusReceived,
		Slides: make([]models.SubmissionSlide, 0, len(req.Slides)),
	}

	if len(req.Student) > 0 {
		submission.Student = datatypes.JSON(req.Student)
	}

	for _, slide := range req.Slides {
		model := models.SubmissionSlide{
			ItemID:        slide.ItemID,
			SelectedIndex: slide.SelectedIndex,
			CanvasPNG:     slide.CanvasPNG,
		}

		if slide.Answer != nil {
			raw, err := json.Marshal(slide.Answer)
			if err != nil {
				return models.Submission{}, fmt.Errorf("encode answer for slide %s: %w", slide.ItemID, err)
			}
			model.Answer = datatypes.JSON(raw)
		}

		if len(slide.CanvasJSON) > 0 {
			model.CanvasJSON = datatypes.JSON(slide.CanvasJSON)
		}

		submission.Slides = append(submission.Slides, model)
	}

	return submission, nil
}

// NewSubmissionPayload converts a stored submission back to its wire shape.
func NewSubmissionPayload(submission models.Submission) (SubmissionPayload, error) {
	payload := SubmissionPayload{
		ExamID: submission.Exam.PublicID,
		Slides: make([]SlidePayload, 0, len(submission.Slides)),
	}

	if len(submission.Student) > 0 {
		payload.Student = json.RawMessage(submission.Student)
	}

	for _, slide := range submission.Slides {
		converted := SlidePayload{
			ItemID:        slide.ItemID,
			SelectedIndex: slide.SelectedIndex,
			CanvasPNG:     slide.CanvasPNG,
		}

		if len(slide.Answer) > 0 {
			answer := &NumericValue{}
			if err := json.Unmarshal(slide.Answer, answer); err != nil {
				return SubmissionPayload{}, fmt.Errorf("decode answer for slide %s: %w", slide.ItemID, err)
			}
			converted.Answer = answer
		}

		if len(slide.CanvasJSON) > 0 {
			converted.CanvasJSON = json.RawMessage(slide.CanvasJSON)
		}

		payload.Slides = append(payload.Slides, converted)
	}

	return payload, nil
}

// NewSubmissionResponse converts a stored submission into its response DTO.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:         submission.ID,
		ExamID:     submission.Exam.PublicID,
		Status:     submission.Status,
		SlideCount: len(submission.Slides),
		CreatedAt:  submission.CreatedAt,
	}

	if len(submission.Student) > 0 {
		response.Student = json.RawMessage(submission.Student)
	}

	return response
}

// NewGradeReportModel converts a computed report into the storage model.
func NewGradeReportModel(report GradeReport, submissionID uint) models.GradeReport {
	model := models.GradeReport{
		SubmissionID: submissionID,
		ExamPublicID: report.ExamID,
		Total:        report.Total,
		MaxTotal:     report.MaxTotal,
		Grade:        report.Grade,
		Scores:       make([]models.ItemScore, 0, len(report.Scores)),
	}

	if len(report.Student) > 0 {
		model.Student = datatypes.JSON(report.Student)
	}

	for _, score := range report.Scores {
		model.Scores = append(model.Scores, models.ItemScore{
			ItemID:   score.ItemID,
			Score:    score.Score,
			Max:      score.Max,
			Feedback: score.Feedback,
		})
	}

	return model
}
