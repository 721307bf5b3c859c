package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/sandbox"
	"github.com/google/uuid"
)

// ErrClosed indicates the session no longer accepts edits.
var ErrClosed = errors.New("session is closed")

// ProblemGetter resolves problems for session creation.
type ProblemGetter interface {
	Get(id int) (*domain.Problem, error)
}

// Service manages practice sessions.
type Service struct {
	store   Store
	catalog ProblemGetter
	logger  *slog.Logger
}

// NewService creates a session service.
func NewService(store Store, catalog ProblemGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: catalog, logger: logger}
}

// Create opens a new session on a problem, seeding the editor with the
// problem's starter code for the chosen language.
func (s *Service) Create(userID string, problemID int, language string) (*Session, error) {
	lang, err := sandbox.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	problem, err := s.catalog.Get(problemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ProblemID: problem.ID,
		Language:  lang.String(),
		Code:      problem.StarterFor(lang.String()),
		Status:    StatusActive,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session created",
		slog.String("session", sess.ID.String()),
		slog.String("user", userID),
		slog.Int("problem", problemID),
		slog.String("language", sess.Language))
	return sess, nil
}

// Get returns a session, enforcing ownership.
func (s *Service) Get(id uuid.UUID, userID string) (*Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// ListForUser returns all of a user's sessions.
func (s *Service) ListForUser(userID string) ([]*Session, error) {
	return s.store.ListByUser(userID)
}

// UpdateCode replaces the editor contents of an open session.
func (s *Service) UpdateCode(id uuid.UUID, userID, code string) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		sess.Code = code
		return nil
	})
}

// SwitchLanguage changes the session language and resets the editor to
// that language's starter code.
func (s *Service) SwitchLanguage(id uuid.UUID, userID, language string) (*Session, error) {
	lang, err := sandbox.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, userID, func(sess *Session) error {
		problem, err := s.catalog.Get(sess.ProblemID)
		if err != nil {
			return err
		}
		sess.Language = lang.String()
		sess.Code = problem.StarterFor(lang.String())
		return nil
	})
}

// AddCustomCase appends a user-authored test case to the session.
func (s *Service) AddCustomCase(id uuid.UUID, userID, input, expected string) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		problem, err := s.catalog.Get(sess.ProblemID)
		if err != nil {
			return err
		}
		nextID := len(problem.TestCases)
		for _, tc := range problem.TestCases {
			if tc.ID > nextID {
				nextID = tc.ID
			}
		}
		for _, tc := range sess.CustomCases {
			if tc.ID > nextID {
				nextID = tc.ID
			}
		}
		sess.CustomCases = append(sess.CustomCases, domain.TestCase{
			ID:       nextID + 1,
			Input:    input,
			Expected: expected,
			Custom:   true,
		})
		return nil
	})
}

// RemoveCustomCase deletes a custom case by ID.
func (s *Service) RemoveCustomCase(id uuid.UUID, userID string, caseID int) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		for i, tc := range sess.CustomCases {
			if tc.ID == caseID {
				sess.CustomCases = append(sess.CustomCases[:i], sess.CustomCases[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("custom case %d not found", caseID)
	})
}

// AttachRun records the most recent run started from this session.
func (s *Service) AttachRun(id uuid.UUID, userID string, runID uuid.UUID) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		sess.LastRunID = runID
		return nil
	})
}

// Submit closes the session and stamps the submission time.
func (s *Service) Submit(id uuid.UUID, userID string) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		now := time.Now()
		sess.Status = StatusSubmitted
		sess.SubmittedAt = &now
		return nil
	})
}

// Abandon closes the session without a submission.
func (s *Service) Abandon(id uuid.UUID, userID string) (*Session, error) {
	return s.mutate(id, userID, func(sess *Session) error {
		sess.Status = StatusAbandoned
		return nil
	})
}

// mutate loads, checks ownership and openness, applies fn, and saves.
// Submit and Abandon go through it too; they are the transitions that
// close the session, so they require it open like any other edit.
func (s *Service) mutate(id uuid.UUID, userID string, fn func(*Session) error) (*Session, error) {
	sess, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}
	if !sess.IsOpen() {
		return nil, ErrClosed
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now()
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}
