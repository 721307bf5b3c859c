package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes grading jobs to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishSubmission publishes a grading job to the queue
func (p *Producer) PublishSubmission(ctx context.Context, job *SubmissionJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, SubmissionQueueName, job); err != nil {
		return fmt.Errorf("failed to publish submission job: %w", err)
	}

	slog.Info("published submission job",
		"job_id", job.ID,
		"user_id", job.UserID,
		"problem_id", job.ProblemID,
		"language", job.Language,
	)

	return nil
}

// PublishResult publishes a grading result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *SubmissionResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("failed to publish submission result: %w", err)
	}

	slog.Info("published submission result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)

	return nil
}
