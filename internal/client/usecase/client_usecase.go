// Package usecase implements the client business logic and orchestrates
// client domain operations.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/client/domain"
	cryptoService "github.com/allisson/ledger/internal/crypto/service"

	appValidation "github.com/allisson/ledger/internal/validation"
)

// CreateClientInput contains the input data for client creation.
type CreateClientInput struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

// UpdateClientInput contains the input data for client updates.
type UpdateClientInput struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Notes       *string `json:"notes"`
}

// UseCase defines the interface for client business logic operations.
type UseCase interface {
	CreateClient(ctx context.Context, input CreateClientInput) (*domain.Client, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*domain.Client, error)
	ListClients(ctx context.Context, offset, limit int) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

// ClientRepository interface defines client repository operations.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.Client, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClientUseCase handles client-related business logic. It derives the email
// lookup token on every write so encrypted emails stay searchable by
// equality.
type ClientUseCase struct {
	clientRepo ClientRepository
	cipher     cryptoService.FieldCipher
}

// NewClientUseCase creates a new ClientUseCase.
func NewClientUseCase(clientRepo ClientRepository, cipher cryptoService.FieldCipher) *ClientUseCase {
	return &ClientUseCase{
		clientRepo: clientRepo,
		cipher:     cipher,
	}
}

func validateClientInput(name, email string) error {
	input := struct {
		Name  string
		Email string
	}{Name: name, Email: email}

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateClient validates the input and creates a new client.
func (uc *ClientUseCase) CreateClient(ctx context.Context, input CreateClientInput) (*domain.Client, error) {
	if err := validateClientInput(input.Name, input.Email); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	emailHash, err := uc.cipher.SearchHash(email)
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		EmailHash:   emailHash,
		PhoneNumber: input.PhoneNumber,
		Notes:       input.Notes,
	}

	return uc.clientRepo.Create(ctx, client)
}

// GetClientByID retrieves a client by ID.
func (uc *ClientUseCase) GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return uc.clientRepo.GetByID(ctx, id)
}

// GetClientByEmail retrieves a client by email using the deterministic
// lookup token. The email itself never reaches the database.
func (uc *ClientUseCase) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	emailHash, err := uc.cipher.SearchHash(email)
	if err != nil {
		return nil, err
	}
	return uc.clientRepo.GetByEmailHash(ctx, emailHash)
}

// ListClients retrieves clients with pagination.
func (uc *ClientUseCase) ListClients(ctx context.Context, offset, limit int) ([]*domain.Client, error) {
	return uc.clientRepo.List(ctx, offset, limit)
}

// UpdateClient validates the input and updates an existing client,
// recomputing the email lookup token.
func (uc *ClientUseCase) UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*domain.Client, error) {
	if err := validateClientInput(input.Name, input.Email); err != nil {
		return nil, err
	}

	existing, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	emailHash, err := uc.cipher.SearchHash(email)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = email
	existing.EmailHash = emailHash
	existing.PhoneNumber = input.PhoneNumber
	existing.Notes = input.Notes

	return uc.clientRepo.Update(ctx, existing)
}

// DeleteClient removes a client by ID.
func (uc *ClientUseCase) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return uc.clientRepo.Delete(ctx, id)
}
