package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/innova-space-edu/exam-mira-api/internal/models"
)

// ReportRepository defines data operations for grade reports.
type ReportRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID uint) (models.GradeReport, error)
	Create(ctx context.Context, report *models.GradeReport) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetBySubmissionID(ctx context.Context, submissionID uint) (models.GradeReport, error) {
	var report models.GradeReport
	if err := r.db.WithContext(ctx).Model(&models.GradeReport{}).
		Preload("Scores").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		First(&report).Error; err != nil {
		return models.GradeReport{}, err
	}

	return report, nil
}

func (r *reportRepository) Create(ctx context.Context, report *models.GradeReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}
