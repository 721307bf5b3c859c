package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/sandbox"
	"github.com/google/uuid"
)

// Config holds grader configuration
type Config struct {
	// Timeout bounds one whole run (all cases)
	Timeout time.Duration
	// CaseTimeout bounds a single case invocation
	CaseTimeout time.Duration
}

// DefaultConfig returns default grader configuration
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		CaseTimeout: 10 * time.Second,
	}
}

// Service grades user code against a problem's test cases. A single
// run is a sequential per-case loop; the service itself is safe for
// concurrent runs and tracks in-flight ones for cancellation.
type Service struct {
	config   Config
	executor sandbox.Executor

	mu      sync.Mutex
	running map[uuid.UUID]*runState
}

type runState struct {
	run    *domain.Run
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewService creates a new grader service
func NewService(cfg Config, executor sandbox.Executor) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CaseTimeout <= 0 {
		cfg.CaseTimeout = DefaultConfig().CaseTimeout
	}
	return &Service{
		config:   cfg,
		executor: executor,
		running:  make(map[uuid.UUID]*runState),
	}
}

// RunRequest contains data for grading a submission
type RunRequest struct {
	RunID     uuid.UUID
	SessionID string
	UserID    string
	ProblemID int
	Language  sandbox.Language
	Code      string
	Cases     []domain.TestCase
}

// Run grades the submission and returns the completed Run. Grading
// errors surface inside the ExecutionResult; the returned error covers
// only infrastructure failures (for example an unreachable backend).
func (s *Service) Run(ctx context.Context, req RunRequest) (*domain.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	now := time.Now()
	run := &domain.Run{
		ID:        req.RunID,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		ProblemID: req.ProblemID,
		Language:  req.Language.String(),
		Status:    domain.RunStatusRunning,
		StartedAt: &now,
		CreatedAt: now,
	}

	state := &runState{run: run, cancel: cancel, doneCh: make(chan struct{})}
	s.mu.Lock()
	s.running[req.RunID] = state
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, req.RunID)
		s.mu.Unlock()
		close(state.doneCh)
	}()

	cases := req.Cases
	if len(cases) == 0 {
		// The UI always gets something to display: an empty case list
		// grades a single trivial case instead of nothing.
		cases = []domain.TestCase{{ID: 1, Input: "", Expected: "", Description: "trivial case"}}
	}

	result, err := s.grade(ctx, req, cases)
	if err != nil {
		run.Status = domain.RunStatusFailed
		return run, err
	}

	run.Result = result
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		run.Status = domain.RunStatusTimeout
	case result.Success:
		run.Status = domain.RunStatusCompleted
	default:
		run.Status = domain.RunStatusFailed
	}
	return run, nil
}

// grade runs the construction check and then the per-case loop,
// aggregating outcomes into one ExecutionResult.
func (s *Service) grade(ctx context.Context, req RunRequest, cases []domain.TestCase) (*domain.ExecutionResult, error) {
	start := time.Now()

	// Construction errors fail the whole batch; no cases are attempted.
	if err := s.executor.Check(ctx, req.Language, req.Code); err != nil {
		var cerr *sandbox.ConstructionError
		if errors.As(err, &cerr) {
			return &domain.ExecutionResult{
				Success:        false,
				TotalTestCases: len(cases),
				Output:         cerr.Message,
				ExecutionTime:  time.Since(start),
			}, nil
		}
		return nil, fmt.Errorf("construction check: %w", err)
	}

	result := &domain.ExecutionResult{
		Cases:          make([]domain.CaseResult, 0, len(cases)),
		TotalTestCases: len(cases),
	}

	for _, tc := range cases {
		if ctx.Err() != nil {
			// Batch deadline expired: remaining cases record as failed.
			result.Cases = append(result.Cases, domain.CaseResult{
				CaseID:   tc.ID,
				Input:    tc.Input,
				Expected: tc.Expected,
				Error:    "time limit exceeded",
			})
			continue
		}

		outcome := s.gradeCase(ctx, req, tc)
		if outcome.Passed {
			result.TestCasesPassed++
		}
		result.Cases = append(result.Cases, outcome)
	}

	result.ExecutionTime = time.Since(start)
	// Vacuous pass on an empty batch keeps downstream display defined.
	result.Success = result.TestCasesPassed == result.TotalTestCases
	result.Output = summarize(result)
	return result, nil
}

// gradeCase invokes the executor once and compares the stringified
// return value against the expected output by exact string equality.
// Differently-formatted but semantically-equal answers fail on
// purpose; that is the documented grading policy.
func (s *Service) gradeCase(ctx context.Context, req RunRequest, tc domain.TestCase) domain.CaseResult {
	caseCtx, cancel := context.WithTimeout(ctx, s.config.CaseTimeout)
	defer cancel()

	outcome := domain.CaseResult{
		CaseID:   tc.ID,
		Input:    tc.Input,
		Expected: tc.Expected,
	}

	res, err := s.executor.Invoke(caseCtx, sandbox.InvokeRequest{
		Language: req.Language,
		Code:     req.Code,
		Input:    tc.Input,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if res.TimedOut {
		outcome.Error = "time limit exceeded"
		return outcome
	}
	if res.ExitCode != 0 {
		outcome.Error = firstLine(res.Stderr)
		return outcome
	}

	outcome.Actual = strings.TrimSpace(res.Output)
	outcome.Passed = outcome.Actual == strings.TrimSpace(tc.Expected)
	return outcome
}

// Cancel cancels an in-flight run
func (s *Service) Cancel(runID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.running[runID]
	s.mu.Unlock()

	if !ok {
		return domain.ErrRunNotFound
	}
	state.cancel()
	return nil
}

// IsRunning checks if a run is currently executing
func (s *Service) IsRunning(runID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[runID]
	return ok
}

// Wait blocks until a run completes or ctx is done
func (s *Service) Wait(ctx context.Context, runID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.running[runID]
	s.mu.Unlock()

	if !ok {
		return nil // Already completed
	}

	select {
	case <-state.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func summarize(r *domain.ExecutionResult) string {
	if r.Success {
		return fmt.Sprintf("All test cases passed (%d/%d)", r.TestCasesPassed, r.TotalTestCases)
	}
	return fmt.Sprintf("%d of %d test cases passed", r.TestCasesPassed, r.TotalTestCases)
}

// firstLine extracts the human-readable message from interpreter
// stderr. Python puts it on the last traceback line, node near the
// top; the line naming the error type wins, latest first.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "runtime error"
	}
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.Contains(trimmed, "Error") || strings.Contains(trimmed, "Exception") {
			return trimmed
		}
	}
	return strings.TrimSpace(lines[0])
}
