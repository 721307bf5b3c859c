// Package session tracks a user's live work on a problem: the editor
// contents, the language, any custom test cases, and the elapsed time.
package session

import (
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/google/uuid"
)

// Status describes the lifecycle of a practice session.
type Status string

const (
	StatusActive    Status = "active"
	StatusSubmitted Status = "submitted"
	StatusAbandoned Status = "abandoned"
)

// Session is one user's work-in-progress on one problem.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"userId"`
	ProblemID   int               `json:"problemId"`
	Language    string            `json:"language"`
	Code        string            `json:"code"`
	CustomCases []domain.TestCase `json:"customCases,omitempty"`
	Status      Status            `json:"status"`
	LastRunID   uuid.UUID         `json:"lastRunId,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
}

// Elapsed returns how long the session has been open, or the time to
// submission once submitted.
func (s *Session) Elapsed() time.Duration {
	if s.SubmittedAt != nil {
		return s.SubmittedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// IsOpen reports whether the session still accepts edits and runs.
func (s *Session) IsOpen() bool {
	return s.Status == StatusActive
}
