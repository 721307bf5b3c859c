package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/google/uuid"
)

// SubmissionStore records graded attempts backed by SQLite.
type SubmissionStore struct {
	db *DB
}

// NewSubmissionStore creates a new SQLite-backed submission store.
func NewSubmissionStore(db *DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Save inserts a submission record.
func (s *SubmissionStore) Save(sub *domain.Submission) error {
	var sessionID any
	if sub.SessionID != uuid.Nil {
		sessionID = sub.SessionID.String()
	}
	_, err := s.db.Exec(`
		INSERT INTO submissions (id, session_id, user_id, problem_id,
			language, code, status, passed, total, output,
			execution_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID.String(), sessionID, sub.UserID, sub.ProblemID,
		sub.Language, sub.Code, string(sub.Status), sub.Passed, sub.Total,
		sub.Output, sub.ExecutionTime.Milliseconds(), sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

// Get loads one submission by ID.
func (s *SubmissionStore) Get(id uuid.UUID) (*domain.Submission, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, user_id, problem_id, language, code,
			status, passed, total, output, execution_time_ms, created_at
		FROM submissions WHERE id = ?`, id.String())

	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListByUser returns a user's submissions, newest first.
func (s *SubmissionStore) ListByUser(userID string, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, user_id, problem_id, language, code,
			status, passed, total, output, execution_time_ms, created_at
		FROM submissions WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ListByProblem returns a user's submissions for one problem, newest first.
func (s *SubmissionStore) ListByProblem(userID string, problemID int) ([]*domain.Submission, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, user_id, problem_id, language, code,
			status, passed, total, output, execution_time_ms, created_at
		FROM submissions WHERE user_id = ? AND problem_id = ?
		ORDER BY created_at DESC`, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var (
		sub       domain.Submission
		id        string
		sessionID sql.NullString
		status    string
		execMS    int64
	)
	err := row.Scan(&id, &sessionID, &sub.UserID, &sub.ProblemID,
		&sub.Language, &sub.Code, &status, &sub.Passed, &sub.Total,
		&sub.Output, &execMS, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}

	sub.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse submission id: %w", err)
	}
	if sessionID.Valid {
		sub.SessionID, err = uuid.Parse(sessionID.String)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
	}
	sub.Status = domain.RunStatus(status)
	sub.ExecutionTime = time.Duration(execMS) * time.Millisecond
	return &sub, nil
}
