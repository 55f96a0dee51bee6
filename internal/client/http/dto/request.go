// Package dto defines the HTTP request and response shapes for client
// operations.
package dto

import (
	"github.com/allisson/ledger/internal/client/usecase"
)

// CreateClientRequest is the request body for client creation.
type CreateClientRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateClientRequest is the request body for client updates.
type UpdateClientRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// ToCreateClientInput converts the request to a use case input.
func ToCreateClientInput(req CreateClientRequest) usecase.CreateClientInput {
	return usecase.CreateClientInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	}
}

// ToUpdateClientInput converts the request to a use case input.
func ToUpdateClientInput(req UpdateClientRequest) usecase.UpdateClientInput {
	return usecase.UpdateClientInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	}
}
