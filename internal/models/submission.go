package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one student's completed exam, slide per item.
type Submission struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ExamID    uint              `gorm:"not null;index" json:"exam_id"`
	Student   datatypes.JSON    `json:"student"`
	Status    string            `gorm:"size:32;not null" json:"status"`
	Slides    []SubmissionSlide `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"slides"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Exam      Exam              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
}

const (
	// SubmissionStatusReceived indicates the submission is stored but not graded.
	SubmissionStatusReceived = "received"
	// SubmissionStatusGraded indicates a grade report exists for the submission.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether the submission has been scored.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionSlide is the recorded response to one exam item. CanvasJSON is
// the structured scene; CanvasPNG the rasterized snapshot as a data URL.
type SubmissionSlide struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SubmissionID  uint           `gorm:"not null;index" json:"submission_id"`
	ItemID        string         `gorm:"size:64;not null" json:"item_id"`
	Answer        datatypes.JSON `json:"answer"`
	SelectedIndex *int           `json:"selected_index"`
	CanvasJSON    datatypes.JSON `json:"canvas_json"`
	CanvasPNG     string         `gorm:"type:text" json:"canvas_png"`
	SnapshotURL   string         `gorm:"size:512" json:"snapshot_url"`
}
