package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/innova-space-edu/exam-mira-api/internal/dto"
	"github.com/innova-space-edu/exam-mira-api/internal/repository"
)

// ErrInvalidSnapshot indicates a canvas snapshot is not a decodable PNG image.
var ErrInvalidSnapshot = errors.New("canvas snapshot is not a valid png image")

// SnapshotArchiver stores a rasterized drawing and returns its public URL.
type SnapshotArchiver interface {
	UploadSnapshot(ctx context.Context, name string, png []byte) (string, error)
}

// SubmissionService manages stored student submissions.
type SubmissionService interface {
	Create(ctx context.Context, req dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	archiver    SnapshotArchiver
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionService constructs the submission intake service. The
// archiver is optional; without it snapshots stay inline only.
func NewSubmissionService(submissions repository.SubmissionRepository, exams repository.ExamRepository, archiver SnapshotArchiver, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		exams:       exams,
		archiver:    archiver,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Create(ctx context.Context, req dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}

	exam, err := s.exams.GetByPublicID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrExamNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	snapshots := make(map[string][]byte, len(req.Slides))
	for _, slide := range req.Slides {
		if slide.CanvasPNG == "" {
			continue
		}
		data, err := decodeSnapshot(slide.CanvasPNG)
		if err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: slide %s", ErrInvalidSnapshot, slide.ItemID)
		}
		snapshots[slide.ItemID] = data
	}

	submission, err := dto.NewSubmissionModel(req, exam.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.archiver != nil {
		for i := range submission.Slides {
			data, ok := snapshots[submission.Slides[i].ItemID]
			if !ok {
				continue
			}
			name := fmt.Sprintf("submission-%s-%s", exam.PublicID, submission.Slides[i].ItemID)
			url, err := s.archiver.UploadSnapshot(ctx, name, data)
			if err != nil {
				s.logger.Warn().Err(err).Str("item_id", submission.Slides[i].ItemID).Msg("snapshot archival failed")
				continue
			}
			submission.Slides[i].SnapshotURL = url
		}
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	stored, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", stored.ID).Str("exam_id", exam.PublicID).Msg("submission stored")

	return dto.NewSubmissionResponse(stored), nil
}

func (s *submissionService) List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}

	return responses, nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// decodeSnapshot decodes a data-URL snapshot and verifies the payload really
// is a PNG image before it is stored or forwarded anywhere.
func decodeSnapshot(dataURL string) ([]byte, error) {
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}

	if !mimetype.Detect(data).Is("image/png") {
		return nil, fmt.Errorf("unexpected snapshot media type")
	}

	return data, nil
}
