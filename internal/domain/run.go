package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one grading pass of user code over a problem's cases
type Run struct {
	ID        uuid.UUID
	SessionID string
	UserID    string // email; empty for anonymous runs
	ProblemID int
	Language  string
	Status    RunStatus
	Result    *ExecutionResult
	StartedAt *time.Time
	CreatedAt time.Time
}

// RunStatus represents the current state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusTimeout   RunStatus = "timeout"
)

// IsTerminal returns true if the run is in a terminal state
func (r *Run) IsTerminal() bool {
	return r.Status == RunStatusCompleted ||
		r.Status == RunStatusFailed ||
		r.Status == RunStatusTimeout
}

// ExecutionResult is the structured outcome of one run or submit
// action. It is created fresh per run, immutable once produced, and
// never persisted verbatim.
type ExecutionResult struct {
	Success         bool          `json:"success"`
	Cases           []CaseResult  `json:"cases"`
	TestCasesPassed int           `json:"test_cases_passed"`
	TotalTestCases  int           `json:"total_test_cases"`
	// Output carries the batch-level message: a construction error, or
	// a short human summary when the batch ran.
	Output        string        `json:"output"`
	ExecutionTime time.Duration `json:"execution_time"`
	// MemoryKB is illustrative only; executors that cannot measure it
	// report 0.
	MemoryKB int64 `json:"memory_kb"`
}

// CaseResult is the outcome of a single test case
type CaseResult struct {
	CaseID   int    `json:"case_id"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
}

// AllPassed returns true if every graded case passed
func (r *ExecutionResult) AllPassed() bool {
	return r.TestCasesPassed == r.TotalTestCases
}
