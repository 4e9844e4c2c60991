package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradeReport is the persisted outcome of grading one submission.
type GradeReport struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index" json:"submission_id"`
	ExamPublicID string         `gorm:"size:64;not null" json:"exam_public_id"`
	Student      datatypes.JSON `json:"student"`
	Total        float64        `gorm:"not null" json:"total"`
	MaxTotal     float64        `gorm:"not null" json:"max_total"`
	Grade        float64        `gorm:"not null" json:"grade"`
	Scores       []ItemScore    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"scores"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ItemScore is one per-item result within a grade report.
type ItemScore struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	GradeReportID uint    `gorm:"not null;index" json:"grade_report_id"`
	ItemID        string  `gorm:"size:64;not null" json:"item_id"`
	Score         float64 `gorm:"not null" json:"score"`
	Max           float64 `gorm:"not null" json:"max"`
	Feedback      string  `gorm:"type:text" json:"feedback"`
}
