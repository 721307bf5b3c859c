package session

import (
	"errors"
	"fmt"

	"github.com/cphub/cphub/internal/storage/local"
	"github.com/google/uuid"
)

const collection = "sessions"

// ErrNotFound indicates the session does not exist.
var ErrNotFound = errors.New("session not found")

// Store defines persistence for sessions.
type Store interface {
	Get(id uuid.UUID) (*Session, error)
	Save(s *Session) error
	ListByUser(userID string) ([]*Session, error)
	Delete(id uuid.UUID) error
}

// LocalStore persists sessions as JSON files.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore creates a session store over the given local store.
func NewLocalStore(store *local.Store) *LocalStore {
	return &LocalStore{store: store}
}

func (s *LocalStore) Get(id uuid.UUID) (*Session, error) {
	var sess Session
	if err := s.store.Load(collection, id.String(), &sess); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &sess, nil
}

func (s *LocalStore) Save(sess *Session) error {
	return s.store.Save(collection, sess.ID.String(), sess)
}

func (s *LocalStore) ListByUser(userID string) ([]*Session, error) {
	ids, err := s.store.List(collection)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []*Session
	for _, id := range ids {
		var sess Session
		if err := s.store.Load(collection, id, &sess); err != nil {
			continue
		}
		if sess.UserID == userID {
			sessions = append(sessions, &sess)
		}
	}
	return sessions, nil
}

func (s *LocalStore) Delete(id uuid.UUID) error {
	if err := s.store.Delete(collection, id.String()); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
