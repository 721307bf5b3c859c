package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the durable record of one graded attempt. Runs are
// in-memory while grading; submissions are what history is made of.
type Submission struct {
	ID            uuid.UUID     `json:"id"`
	SessionID     uuid.UUID     `json:"sessionId,omitempty"`
	UserID        string        `json:"userId"`
	ProblemID     int           `json:"problemId"`
	Language      string        `json:"language"`
	Code          string        `json:"code"`
	Status        RunStatus     `json:"status"`
	Passed        int           `json:"passed"`
	Total         int           `json:"total"`
	Output        string        `json:"output"`
	ExecutionTime time.Duration `json:"executionTime"`
	CreatedAt     time.Time     `json:"createdAt"`
}
