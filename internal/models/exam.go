package models

import (
	"time"

	"gorm.io/datatypes"
)

// Exam is a teacher-authored exam definition.
type Exam struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PublicID  string     `gorm:"size:64;uniqueIndex;not null" json:"public_id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Course    string     `gorm:"size:255" json:"course"`
	Objective string     `gorm:"type:text" json:"objective"`
	Items     []ExamItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ExamItem is one gradable unit inside an exam. Answer keeps the original
// scalar-or-list JSON shape; Criteria and Weights are positionally paired.
type ExamItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ExamID      uint           `gorm:"not null;index" json:"exam_id"`
	ItemID      string         `gorm:"size:64;not null" json:"item_id"`
	Type        string         `gorm:"size:32;not null" json:"type"`
	Prompt      string         `gorm:"type:text" json:"prompt"`
	Answer      datatypes.JSON `json:"answer"`
	Tolerance   float64        `json:"tolerance"`
	Criteria    datatypes.JSON `json:"criteria"`
	Weights     datatypes.JSON `json:"weights"`
	Options     datatypes.JSON `json:"options"`
	AnswerIndex *int           `json:"answer_index"`
	Position    int            `gorm:"not null" json:"position"`
}
