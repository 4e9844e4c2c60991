package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/events"
	"github.com/innova-space-edu/exam-mira-api/internal/models"
	"github.com/innova-space-edu/exam-mira-api/internal/repository"
	"github.com/innova-space-edu/exam-mira-api/pkg/ai"
)

// ErrSubmissionNotFound indicates the stored submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// TextExtractor converts a rasterized drawing into plain text. Extraction is
// best-effort: the grading pipeline proceeds with empty text on any failure.
type TextExtractor interface {
	Extract(ctx context.Context, dataURL string) (string, error)
}

// GradingService scores a submission against its exam definition and
// assembles the final report.
type GradingService interface {
	GradeSubmission(ctx context.Context, req dto.GradeRequest) (dto.GradeReport, error)
	GradeSubmissionProgress(ctx context.Context, req dto.GradeRequest, progress func(dto.ItemScore)) (dto.GradeReport, error)
	GradeStoredSubmission(ctx context.Context, submissionID uint) (dto.GradeReport, error)
}

type gradingService struct {
	extractor   TextExtractor
	grader      ai.Grader
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading orchestrator. The repositories,
// cache and publisher are optional; without them the service grades inline
// requests only.
func NewGradingService(extractor TextExtractor, grader ai.Grader, submissions repository.SubmissionRepository, reports repository.ReportRepository, cache *redis.Client, cacheTTL time.Duration, publisher events.Publisher, logger zerolog.Logger) GradingService {
	return &gradingService{
		extractor:   extractor,
		grader:      grader,
		submissions: submissions,
		reports:     reports,
		cache:       cache,
		cacheTTL:    cacheTTL,
		publisher:   publisher,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) GradeSubmission(ctx context.Context, req dto.GradeRequest) (dto.GradeReport, error) {
	return s.GradeSubmissionProgress(ctx, req, nil)
}

// GradeSubmissionProgress grades the request, invoking progress after each
// item score is produced. Nothing below this boundary raises: per-item
// failures degrade to incorrect or no-response scores, and an unanticipated
// panic is converted into the returned error.
func (s *gradingService) GradeSubmissionProgress(ctx context.Context, req dto.GradeRequest, progress func(dto.ItemScore)) (report dto.GradeReport, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("grading failed: %v", recovered)
			s.logger.Error().Str("exam_id", req.Exam.ID).Interface("panic", recovered).Msg("grading pipeline panicked")
		}
	}()

	tracer := otel.Tracer("github.com/innova-space-edu/exam-mira-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.submission")
	span.SetAttributes(
		attribute.String("grading.exam_id", req.Exam.ID),
		attribute.Int("grading.item_count", len(req.Exam.Items)),
	)
	defer span.End()

	emit := func(score dto.ItemScore) {
		if progress != nil {
			progress(score)
		}
	}

	scores := make([]dto.ItemScore, 0, len(req.Exam.Items))

	for _, item := range req.Exam.Items {
		if item.Type != dto.ItemTypeNumeric {
			continue
		}
		score := evaluateNumericItem(item, resolveSlide(req.Submission.Slides, item.ID))
		scores = append(scores, score)
		emit(score)
	}

	skipped := 0
	for _, item := range req.Exam.Items {
		switch item.Type {
		case dto.ItemTypeNumeric:
			// scored above
		case dto.ItemTypeOpenDrawing:
			score := s.gradeDrawing(ctx, item, resolveSlide(req.Submission.Slides, item.ID))
			scores = append(scores, score)
			emit(score)
		case dto.ItemTypeMultipleChoice:
			// Multiple-choice items are stored and served but not auto-graded.
			skipped++
		default:
			s.logger.Warn().Str("item_id", item.ID).Str("type", item.Type).Msg("unknown item type skipped")
			skipped++
		}
	}

	if skipped > 0 {
		s.logger.Debug().Int("skipped", skipped).Str("exam_id", req.Exam.ID).Msg("items excluded from grading")
	}

	total, maxTotal, grade := aggregateScores(scores)
	span.SetAttributes(attribute.Float64("grading.grade", grade))

	return dto.GradeReport{
		ExamID:   req.Exam.ID,
		Student:  req.Submission.Student,
		Scores:   scores,
		Total:    total,
		MaxTotal: maxTotal,
		Grade:    grade,
	}, nil
}

// gradeDrawing runs the OCR -> prompt -> model pipeline for one open-drawing
// item. A missing slide still reaches the model with placeholder evidence.
func (s *gradingService) gradeDrawing(ctx context.Context, item dto.ItemPayload, slide *dto.SlidePayload) dto.ItemScore {
	extracted := ""
	var scene []byte

	if slide != nil {
		scene = slide.CanvasJSON
		if slide.CanvasPNG != "" && s.extractor != nil {
			text, err := s.extractor.Extract(ctx, slide.CanvasPNG)
			if err != nil {
				s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("ocr extraction failed, grading without text")
			} else {
				extracted = text
			}
		}
	}

	result := ai.GradeResult{Feedback: feedbackNoResponse}
	if s.grader != nil {
		input := ai.RubricInput{
			Statement: item.Prompt,
			OCRText:   extracted,
			SceneJSON: scene,
		}
		if item.Rubric != nil {
			input.Criteria = item.Rubric.Criteria
			input.Weights = item.Rubric.Weights
		}

		graded, err := s.grader.Grade(ctx, input)
		if err != nil {
			s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("model grading failed")
			graded = ai.GradeResult{Feedback: feedbackNoResponse}
		}
		result = graded
	}

	return dto.ItemScore{ItemID: item.ID, Score: result.Score, Max: 1, Feedback: result.Feedback}
}

// GradeStoredSubmission grades a persisted submission against its stored
// exam, caching the report and publishing a graded event.
func (s *gradingService) GradeStoredSubmission(ctx context.Context, submissionID uint) (dto.GradeReport, error) {
	if s.submissions == nil {
		return dto.GradeReport{}, ErrSubmissionNotFound
	}

	cacheKey := fmt.Sprintf("report:submission:%d", submissionID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var report dto.GradeReport
			if unmarshalErr := json.Unmarshal([]byte(cached), &report); unmarshalErr == nil {
				s.logger.Debug().Uint("submission_id", submissionID).Msg("report cache hit")
				return report, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeReport{}, ErrSubmissionNotFound
		}
		return dto.GradeReport{}, err
	}

	examPayload, err := dto.NewExamPayload(submission.Exam)
	if err != nil {
		return dto.GradeReport{}, err
	}

	submissionPayload, err := dto.NewSubmissionPayload(submission)
	if err != nil {
		return dto.GradeReport{}, err
	}

	report, err := s.GradeSubmissionProgress(ctx, dto.GradeRequest{Exam: examPayload, Submission: submissionPayload}, nil)
	if err != nil {
		return dto.GradeReport{}, err
	}

	s.finishStoredGrade(ctx, submission, report, cacheKey)

	return report, nil
}

// finishStoredGrade persists, caches and announces a freshly computed report.
// Each step is best-effort; the report is already final.
func (s *gradingService) finishStoredGrade(ctx context.Context, submission models.Submission, report dto.GradeReport, cacheKey string) {
	if s.reports != nil {
		model := dto.NewGradeReportModel(report, submission.ID)
		if err := s.reports.Create(ctx, &model); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist grade report")
		}
	}

	if submission.Status != models.SubmissionStatusGraded {
		submission.Status = models.SubmissionStatusGraded
		if err := s.submissions.Update(ctx, &submission); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to mark submission graded")
		}
	}

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
			}
		}
	}

	if s.publisher != nil {
		event := events.GradedEvent{
			SubmissionID: submission.ID,
			ExamID:       report.ExamID,
			Total:        report.Total,
			MaxTotal:     report.MaxTotal,
			Grade:        report.Grade,
			GradedAt:     s.now(),
		}
		if err := s.publisher.PublishGraded(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish graded event")
		}
	}
}
