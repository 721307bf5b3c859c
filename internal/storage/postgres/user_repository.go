package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cphub/cphub/internal/domain"
)

// UserRepository implements user persistence backed by PostgreSQL.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID loads a user by ID.
func (r *UserRepository) GetByID(id string) (*domain.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.scanOne(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE id = $1`, parsed)
}

// GetByEmail loads a user by email.
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	return r.scanOne(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE email = $1`, email)
}

// Save persists a user (insert or update).
func (r *UserRepository) Save(u *domain.User) error {
	_, err := r.db.ExecContext(context.Background(), `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(context.Background(), query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}
