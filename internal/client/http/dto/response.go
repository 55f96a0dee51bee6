package dto

import (
	"time"

	"github.com/allisson/ledger/internal/client/domain"
)

// ClientResponse is the API representation of a client. The email lookup
// token is internal and never exposed.
type ClientResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListClientsResponse is the paginated client list.
type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// ToClientResponse converts a domain client to its API representation.
func ToClientResponse(client *domain.Client) ClientResponse {
	return ClientResponse{
		ID:          client.ID.String(),
		Name:        client.Name,
		Email:       client.Email,
		PhoneNumber: client.PhoneNumber,
		Notes:       client.Notes,
		CreatedAt:   client.CreatedAt,
		UpdatedAt:   client.UpdatedAt,
	}
}

// ToListClientsResponse converts domain clients to the paginated list shape.
func ToListClientsResponse(clients []*domain.Client, offset, limit int) ListClientsResponse {
	out := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		out = append(out, ToClientResponse(client))
	}
	return ListClientsResponse{Clients: out, Offset: offset, Limit: limit}
}
