// Package domain defines the core account domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/errors"
)

// Account represents a ledger account owned by a client. The credit limit
// and notes are sensitive and stored encrypted.
type Account struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Name        string
	Currency    string
	CreditLimit *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain-specific errors for account operations.
var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")
)
