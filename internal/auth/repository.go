package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/storage/local"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const usersCollection = "users"

// index maps emails to user IDs so logins need one extra read, not a
// scan of every user file.
type emailIndex struct {
	Emails map[string]string `json:"emails"`
}

// FileRepository persists users as JSON files.
type FileRepository struct {
	store *local.Store
}

// NewFileRepository creates a file-backed user repository. A demo
// account (demo@example.com / "password") is seeded on first start so
// a fresh install has a working login.
func NewFileRepository(store *local.Store) (*FileRepository, error) {
	repo := &FileRepository{store: store}
	if err := repo.seedDemoUser(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileRepository) seedDemoUser() error {
	if _, err := r.GetByEmail("demo@example.com"); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	now := time.Now()
	return r.Save(&domain.User{
		ID:           uuid.New(),
		Email:        "demo@example.com",
		Name:         "Demo User",
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (r *FileRepository) GetByID(id string) (*domain.User, error) {
	var user domain.User
	if err := r.store.Load(usersCollection, id, &user); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (r *FileRepository) GetByEmail(email string) (*domain.User, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	id, ok := idx.Emails[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(id)
}

func (r *FileRepository) Save(u *domain.User) error {
	if err := r.store.Save(usersCollection, u.ID.String(), u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	idx.Emails[u.Email] = u.ID.String()
	if err := r.store.Save(usersCollection, "_index", idx); err != nil {
		return fmt.Errorf("save user index: %w", err)
	}
	return nil
}

func (r *FileRepository) loadIndex() (*emailIndex, error) {
	var idx emailIndex
	if err := r.store.Load(usersCollection, "_index", &idx); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return &emailIndex{Emails: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("load user index: %w", err)
	}
	if idx.Emails == nil {
		idx.Emails = make(map[string]string)
	}
	return &idx, nil
}
