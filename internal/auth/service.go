// Package auth handles user registration, login and access tokens.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	// ErrEmailTaken indicates a registration with an existing email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters long", minPasswordLength)
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(id string) (*domain.User, error)
	GetByEmail(email string) (*domain.User, error)
	Save(u *domain.User) error
}

// Service manages accounts and issues tokens.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates an auth service.
func NewService(repo Repository, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register creates a new account and returns the stored user.
func (s *Service) Register(email, password, name string) (*domain.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, errors.New("email, password, and name are required")
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := s.repo.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user", user.ID.String()), slog.String("email", email))
	return user, nil
}

// Login verifies credentials and returns the user plus a signed token.
func (s *Service) Login(email, password string) (*domain.User, string, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(tokenString string) (*domain.User, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
