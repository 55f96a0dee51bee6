// Package dto defines the HTTP request and response shapes for account
// operations.
package dto

import (
	"time"

	"github.com/allisson/ledger/internal/account/domain"
	"github.com/allisson/ledger/internal/account/usecase"
)

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	ClientID    string  `json:"client_id"`
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	CreditLimit *string `json:"credit_limit,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateAccountRequest is the request body for account updates.
type UpdateAccountRequest struct {
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	CreditLimit *string `json:"credit_limit,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// AccountResponse is the API representation of an account.
type AccountResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	CreditLimit *string   `json:"credit_limit,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListAccountsResponse is the paginated account list.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// ToCreateAccountInput converts the request to a use case input.
func ToCreateAccountInput(req CreateAccountRequest) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Currency:    req.Currency,
		CreditLimit: req.CreditLimit,
		Notes:       req.Notes,
	}
}

// ToUpdateAccountInput converts the request to a use case input.
func ToUpdateAccountInput(req UpdateAccountRequest) usecase.UpdateAccountInput {
	return usecase.UpdateAccountInput{
		Name:        req.Name,
		Currency:    req.Currency,
		CreditLimit: req.CreditLimit,
		Notes:       req.Notes,
	}
}

// ToAccountResponse converts a domain account to its API representation.
func ToAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID.String(),
		ClientID:    account.ClientID.String(),
		Name:        account.Name,
		Currency:    account.Currency,
		CreditLimit: account.CreditLimit,
		Notes:       account.Notes,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

// ToListAccountsResponse converts domain accounts to the paginated list shape.
func ToListAccountsResponse(accounts []*domain.Account, offset, limit int) ListAccountsResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, ToAccountResponse(account))
	}
	return ListAccountsResponse{Accounts: out, Offset: offset, Limit: limit}
}
