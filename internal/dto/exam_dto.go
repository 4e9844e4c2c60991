package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/innova-space-edu/exam-mira-api/internal/models"
)

// ExamCreateRequest is the authoring payload for a new exam.
type ExamCreateRequest struct {
	Title     string        `json:"title" validate:"required,min=3"`
	Course    string        `json:"course"`
	Objective string        `json:"objective"`
	Items     []ItemPayload `json:"items" validate:"required,min=1,dive"`
}

// ExamResponse is returned to authoring clients.
type ExamResponse struct {
	ID        uint          `json:"id"`
	PublicID  string        `json:"publicId"`
	Title     string        `json:"title"`
	Course    string        `json:"course,omitempty"`
	Objective string        `json:"objective,omitempty"`
	Items     []ItemPayload `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewExamModel converts an authoring request into the storage model.
func NewExamModel(req ExamCreateRequest, publicID string) (models.Exam, error) {
	exam := models.Exam{
		PublicID:  publicID,
		Title:     req.Title,
		Course:    req.Course,
		Objective: req.Objective,
		Items:     make([]models.ExamItem, 0, len(req.Items)),
	}

	for position, item := range req.Items {
		model := models.ExamItem{
			ItemID:      item.ID,
			Type:        item.Type,
			Prompt:      item.Prompt,
			Tolerance:   item.Tolerance,
			AnswerIndex: item.AnswerIndex,
			Position:    position,
		}

		if item.Answer != nil {
			raw, err := json.Marshal(item.Answer)
			if err != nil {
				return models.Exam{}, fmt.Errorf("encode answer for item %s: %w", item.ID, err)
			}
			model.Answer = datatypes.JSON(raw)
		}

		if item.Rubric != nil {
			criteria, err := json.Marshal(item.Rubric.Criteria)
			if err != nil {
				return models.Exam{}, fmt.Errorf("encode criteria for item %s: %w", item.ID, err)
			}
			weights, err := json.Marshal(item.Rubric.Weights)
			if err != nil {
				return models.Exam{}, fmt.Errorf("encode weights for item %s: %w", item.ID, err)
			}
			model.Criteria = datatypes.JSON(criteria)
			model.Weights = datatypes.JSON(weights)
		}

		if len(item.Options) > 0 {
			options, err := json.Marshal(item.Options)
			if err != nil {
				return models.Exam{}, fmt.Errorf("encode options for item %s: %w", item.ID, err)
			}
			model.Options = datatypes.JSON(options)
		}

		exam.Items = append(exam.Items, model)
	}

	return exam, nil
}

// NewExamPayload converts a stored exam back to its wire shape.
func NewExamPayload(exam models.Exam) (ExamPayload, error) {
	payload := ExamPayload{
		ID:        exam.PublicID,
		Title:     exam.Title,
		Course:    exam.Course,
		Objective: exam.Objective,
		Items:     make([]ItemPayload, 0, len(exam.Items)),
	}

	for _, item := range exam.Items {
		converted := ItemPayload{
			ID:          item.ItemID,
			Type:        item.Type,
			Prompt:      item.Prompt,
			Tolerance:   item.Tolerance,
			AnswerIndex: item.AnswerIndex,
		}

		if len(item.Answer) > 0 {
			answer := &NumericValue{}
			if err := json.Unmarshal(item.Answer, answer); err != nil {
				return ExamPayload{}, fmt.Errorf("decode answer for item %s: %w", item.ItemID, err)
			}
			converted.Answer = answer
		}

		if len(item.Criteria) > 0 || len(item.Weights) > 0 {
			rubric := &RubricPayload{}
			if len(item.Criteria) > 0 {
				if err := json.Unmarshal(item.Criteria, &rubric.Criteria); err != nil {
					return ExamPayload{}, fmt.Errorf("decode criteria for item %s: %w", item.ItemID, err)
				}
			}
			if len(item.Weights) > 0 {
				if err := json.Unmarshal(item.Weights, &rubric.Weights); err != nil {
					return ExamPayload{}, fmt.Errorf("decode weights for item %s: %w", item.ItemID, err)
				}
			}
			converted.Rubric = rubric
		}

		if len(item.Options) > 0 {
			if err := json.Unmarshal(item.Options, &converted.Options); err != nil {
				return ExamPayload{}, fmt.Errorf("decode options for item %s: %w", item.ItemID, err)
			}
		}

		payload.Items = append(payload.Items, converted)
	}

	return payload, nil
}

// NewExamResponse converts a stored exam into the authoring response DTO.
func NewExamResponse(exam models.Exam) (ExamResponse, error) {
	payload, err := NewExamPayload(exam)
	if err != nil {
		return ExamResponse{}, err
	}

	return ExamResponse{
		ID:        exam.ID,
		PublicID:  exam.PublicID,
		Title:     exam.Title,
		Course:    exam.Course,
		Objective: exam.Objective,
		Items:     payload.Items,
		CreatedAt: exam.CreatedAt,
		UpdatedAt: exam.UpdatedAt,
	}, nil
}
