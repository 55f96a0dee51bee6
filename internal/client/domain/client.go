// Package domain defines the core client domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/errors"
)

// Client represents a customer of the ledger. Email, phone number, and notes
// hold personal data and are stored encrypted; EmailHash is the deterministic
// lookup token derived from the normalized email.
type Client struct {
	ID          uuid.UUID
	Name        string
	Email       string
	EmailHash   string
	PhoneNumber *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain-specific errors for client operations.
var (
	// ErrClientNotFound indicates the requested client does not exist.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrClientAlreadyExists indicates a client with the same email already exists.
	ErrClientAlreadyExists = errors.Wrap(errors.ErrConflict, "client already exists")
)
