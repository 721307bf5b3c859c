package progress

import (
	"errors"
	"fmt"

	"github.com/cphub/cphub/internal/storage/local"
)

const collectionProgress = "progress"

// LocalStore persists ledger entries as one JSON document per user in
// the local file store.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore creates a new file-backed progress store
func NewLocalStore(basePath string) (*LocalStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, fmt.Errorf("create progress store: %w", err)
	}
	return &LocalStore{store: store}, nil
}

// Get retrieves a ledger entry by user id
func (s *LocalStore) Get(userID string) (*UserProgress, error) {
	var p UserProgress
	if err := s.store.Load(collectionProgress, userID, &p); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Save persists a ledger entry, whole-record
func (s *LocalStore) Save(p *UserProgress) error {
	return s.store.Save(collectionProgress, p.UserID, p)
}

// List returns all ledger entries
func (s *LocalStore) List() ([]*UserProgress, error) {
	ids, err := s.store.List(collectionProgress)
	if err != nil {
		return nil, err
	}

	entries := make([]*UserProgress, 0, len(ids))
	for _, id := range ids {
		var p UserProgress
		if err := s.store.Load(collectionProgress, id, &p); err != nil {
			// Skip unreadable records; GetProgress resets them lazily.
			continue
		}
		entries = append(entries, &p)
	}
	return entries, nil
}
