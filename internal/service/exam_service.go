package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/repository"
	"github.com/innova-space-edu/exam-mira-api/internal/schema"
)

// ErrExamNotFound indicates the exam was not located.
var ErrExamNotFound = errors.New("exam not found")

// ErrExamRejected indicates the exam document failed schema validation.
var ErrExamRejected = errors.New("exam document rejected")

// ExamService manages authored exam definitions.
type ExamService interface {
	Create(ctx context.Context, req dto.ExamCreateRequest) (dto.ExamResponse, error)
	List(ctx context.Context) ([]dto.ExamResponse, error)
	Get(ctx context.Context, id uint) (dto.ExamResponse, error)
	Delete(ctx context.Context, id uint) error
}

type examService struct {
	repo      repository.ExamRepository
	validator *validator.Validate
	schema    *schema.ExamValidator
	logger    zerolog.Logger
}

// NewExamService constructs the exam authoring service.
func NewExamService(repo repository.ExamRepository, validate *validator.Validate, schemaValidator *schema.ExamValidator, logger zerolog.Logger) ExamService {
	return &examService{
		repo:      repo,
		validator: validate,
		schema:    schemaValidator,
		logger:    logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) Create(ctx context.Context, req dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ExamResponse{}, err
	}

	if s.schema != nil {
		document, err := json.Marshal(req)
		if err != nil {
			return dto.ExamResponse{}, fmt.Errorf("encode exam document: %w", err)
		}
		if err := s.schema.Validate(document); err != nil {
			s.logger.Debug().Err(err).Str("title", req.Title).Msg("exam document failed schema validation")
			return dto.ExamResponse{}, fmt.Errorf("%w: %v", ErrExamRejected, err)
		}
	}

	exam, err := dto.NewExamModel(req, uuid.NewString())
	if err != nil {
		return dto.ExamResponse{}, err
	}

	if err := s.repo.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Str("public_id", exam.PublicID).Msg("exam created")

	return dto.NewExamResponse(exam)
}

func (s *examService) List(ctx context.Context) ([]dto.ExamResponse, error) {
	exams, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		response, err := dto.NewExamResponse(exam)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam)
}

func (s *examService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	return s.repo.Delete(ctx, id)
}
