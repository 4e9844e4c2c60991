package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item type discriminators used on the wire and in storage.
const (
	ItemTypeNumeric        = "numeric"
	ItemTypeOpenDrawing    = "open_drawing"
	ItemTypeMultipleChoice = "multiple_choice"
)

// NumericValue is a numeric answer that may arrive as a single number or as
// an ordered list of numbers. Shape is preserved so the evaluator can reject
// scalar-vs-list mismatches.
type NumericValue struct {
	Values []float64
	IsList bool
}

// UnmarshalJSON accepts a JSON number, an array of numbers, or null.
func (v *NumericValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = NumericValue{}
		return nil
	}

	if trimmed[0] == '[' {
		var values []float64
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("numeric answer list: %w", err)
		}
		*v = NumericValue{Values: values, IsList: true}
		return nil
	}

	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return fmt.Errorf("numeric answer: %w", err)
	}
	*v = NumericValue{Values: []float64{value}}
	return nil
}

// MarshalJSON restores the original scalar or list shape.
func (v NumericValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		if v.Values == nil {
			return json.Marshal([]float64{})
		}
		return json.Marshal(v.Values)
	}
	if len(v.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.Values[0])
}

// IsZero reports whether no value was submitted at all.
func (v NumericValue) IsZero() bool {
	return !v.IsList && len(v.Values) == 0
}

// RubricPayload pairs criteria and weights positionally. Weights are context
// for the model grader, not mechanically applied weights.
type RubricPayload struct {
	Criteria []string  `json:"criteria"`
	Weights  []float64 `json:"weights"`
}

// ItemPayload is one gradable unit inside an exam document.
type ItemPayload struct {
	ID          string         `json:"id" validate:"required"`
	Type        string         `json:"type" validate:"required,oneof=numeric open_drawing multiple_choice"`
	Prompt      string         `json:"prompt"`
	Answer      *NumericValue  `json:"answer,omitempty"`
	Tolerance   float64        `json:"tolerance,omitempty" validate:"gte=0"`
	Rubric      *RubricPayload `json:"rubric,omitempty"`
	Options     []string       `json:"options,omitempty"`
	AnswerIndex *int           `json:"answerIndex,omitempty"`
}

// ExamPayload is the exam definition as exchanged with clients.
type ExamPayload struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Course    string        `json:"course,omitempty"`
	Objective string        `json:"objective,omitempty"`
	Items     []ItemPayload `json:"items" validate:"dive"`
}

// SlidePayload is one student response, keyed by itemId.
type SlidePayload struct {
	ItemID        string          `json:"itemId" validate:"required"`
	Answer        *NumericValue   `json:"answer,omitempty"`
	SelectedIndex *int            `json:"selectedIndex,omitempty"`
	CanvasJSON    json.RawMessage `json:"canvasJSON,omitempty"`
	CanvasPNG     string          `json:"canvasPNG,omitempty"`
}

// SubmissionPayload is a full student submission. Student is opaque metadata
// passed through to the report untouched.
type SubmissionPayload struct {
	ExamID  string          `json:"examId,omitempty"`
	Student json.RawMessage `json:"student,omitempty"`
	Slides  []SlidePayload  `json:"slides"`
}

// GradeRequest is the grading entry point request body.
type GradeRequest struct {
	Exam       ExamPayload       `json:"exam"`
	Submission SubmissionPayload `json:"submission"`
}

// ItemScore is the per-item grading result.
type ItemScore struct {
	ItemID   string  `json:"itemId"`
	Score    float64 `json:"score"`
	Max      float64 `json:"max"`
	Feedback string  `json:"feedback"`
}

// GradeReport is the final aggregate returned by the grading entry point.
type GradeReport struct {
	ExamID   string          `json:"examId"`
	Student  json.RawMessage `json:"student,omitempty"`
	Scores   []ItemScore     `json:"scores"`
	Total    float64         `json:"total"`
	MaxTotal float64         `json:"maxTotal"`
	Grade    float64         `json:"grade"`
}
