package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cphub/cphub/internal/grader"
	"github.com/cphub/cphub/internal/queue"
	"github.com/cphub/cphub/internal/sandbox"
)

// JobHandler adapts the daemon's grader into a queue worker callback,
// so a cphubd instance can drain the submission queue alongside its
// HTTP API. Jobs without explicit cases grade against the problem's
// official cases.
func (s *Server) JobHandler() queue.JobHandler {
	return func(ctx context.Context, job *queue.SubmissionJob) (*queue.SubmissionResult, error) {
		lang, err := sandbox.ParseLanguage(job.Language)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.ID, err)
		}

		cases := job.Cases
		if len(cases) == 0 {
			problem, err := s.registry.Get(job.ProblemID)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", job.ID, err)
			}
			cases = problem.TestCases
		}

		sessionID := ""
		if job.SessionID != uuid.Nil {
			sessionID = job.SessionID.String()
		}

		start := time.Now()
		run, err := s.grader.Run(ctx, grader.RunRequest{
			RunID:     uuid.New(),
			SessionID: sessionID,
			UserID:    job.UserID,
			ProblemID: job.ProblemID,
			Language:  lang,
			Code:      job.Code,
			Cases:     cases,
		})
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.ID, err)
		}

		return &queue.SubmissionResult{
			JobID:       job.ID,
			Status:      string(run.Status),
			Result:      run.Result,
			Duration:    time.Since(start),
			CompletedAt: time.Now(),
		}, nil
	}
}
