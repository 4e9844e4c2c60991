package ai

import "context"

// RubricInput carries everything the model grader needs to score one
// open-drawing item.
type RubricInput struct {
	Statement string
	Criteria  []string
	Weights   []float64
	OCRText   string
	SceneJSON []byte
}

// GradeResult is the structured verdict produced for one item.
type GradeResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Grader describes a model capable of scoring a rubric-based answer.
type Grader interface {
	Grade(ctx context.Context, input RubricInput) (GradeResult, error)
}
