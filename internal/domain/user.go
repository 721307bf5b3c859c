package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. The email doubles as the
// progress ledger's partition key.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
