package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultGradedSubject is the NATS subject graded-submission events are
// published on.
const DefaultGradedSubject = "exammira.submission.graded"

// GradedEvent announces that a submission received a grade report.
type GradedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	ExamID       string    `json:"examId"`
	Total        float64   `json:"total"`
	MaxTotal     float64   `json:"maxTotal"`
	Grade        float64   `json:"grade"`
	GradedAt     time.Time `json:"graded_at"`
}

// Publisher broadcasts grading lifecycle events.
type Publisher interface {
	PublishGraded(ctx context.Context, event GradedEvent) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher builds a publisher on top of an established NATS connection.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) Publisher {
	if subject == "" {
		subject = DefaultGradedSubject
	}

	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) PublishGraded(_ context.Context, event GradedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode graded event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish graded event: %w", err)
	}

	p.logger.Debug().Uint("submission_id", event.SubmissionID).Msg("graded event published")

	return nil
}
