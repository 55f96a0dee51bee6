// Package usecase implements the account business logic.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/account/domain"
	clientDomain "github.com/allisson/ledger/internal/client/domain"

	appValidation "github.com/allisson/ledger/internal/validation"
)

// CreateAccountInput contains the input data for account creation.
type CreateAccountInput struct {
	ClientID    string  `json:"client_id"`
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	CreditLimit *string `json:"credit_limit"`
	Notes       *string `json:"notes"`
}

// UpdateAccountInput contains the input data for account updates.
type UpdateAccountInput struct {
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	CreditLimit *string `json:"credit_limit"`
	Notes       *string `json:"notes"`
}

// UseCase defines the interface for account business logic operations.
type UseCase interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccountsByClient(ctx context.Context, clientID uuid.UUID, offset, limit int) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// AccountRepository interface defines account repository operations.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, offset, limit int) ([]*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClientGetter resolves account owners. Accounts can only be created for
// existing clients.
type ClientGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clientDomain.Client, error)
}

// AccountUseCase handles account-related business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	clientRepo  ClientGetter
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, clientRepo ClientGetter) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		clientRepo:  clientRepo,
	}
}

func validateAccountInput(name, currency string) error {
	input := struct {
		Name     string
		Currency string
	}{Name: name, Currency: currency}

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Currency,
			validation.Required.Error("currency is required"),
			validation.Length(3, 3).Error("currency must be a 3-letter code"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateAccount validates the input, checks the owning client exists, and
// creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := validateAccountInput(input.Name, input.Currency); err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return nil, appValidation.WrapValidationError(validation.NewError(
			"validation_invalid_client_id", "client_id must be a valid UUID",
		))
	}

	if _, err := uc.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:          uuid.Must(uuid.NewV7()),
		ClientID:    clientID,
		Name:        strings.TrimSpace(input.Name),
		Currency:    strings.ToUpper(input.Currency),
		CreditLimit: input.CreditLimit,
		Notes:       input.Notes,
	}

	return uc.accountRepo.Create(ctx, account)
}

// GetAccountByID retrieves an account by ID.
func (uc *AccountUseCase) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsByClient retrieves a client's accounts with pagination.
func (uc *AccountUseCase) ListAccountsByClient(ctx context.Context, clientID uuid.UUID, offset, limit int) ([]*domain.Account, error) {
	return uc.accountRepo.ListByClient(ctx, clientID, offset, limit)
}

// UpdateAccount validates the input and updates an existing account. The
// owning client cannot change.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error) {
	if err := validateAccountInput(input.Name, input.Currency); err != nil {
		return nil, err
	}

	existing, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Currency = strings.ToUpper(input.Currency)
	existing.CreditLimit = input.CreditLimit
	existing.Notes = input.Notes

	return uc.accountRepo.Update(ctx, existing)
}

// DeleteAccount removes an account by ID.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return uc.accountRepo.Delete(ctx, id)
}
