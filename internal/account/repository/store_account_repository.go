// Package repository provides data persistence for account entities on top
// of the generic record store.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/account/domain"
	"github.com/allisson/ledger/internal/fieldcrypt"

	apperrors "github.com/allisson/ledger/internal/errors"
)

// ModelName is the account model name in the store and the field encryption
// configuration.
const ModelName = "accounts"

// StoreAccountRepository handles account persistence through a record store.
type StoreAccountRepository struct {
	store fieldcrypt.Store
}

// NewStoreAccountRepository creates a new StoreAccountRepository.
func NewStoreAccountRepository(store fieldcrypt.Store) *StoreAccountRepository {
	return &StoreAccountRepository{store: store}
}

// Create inserts a new account.
func (r *StoreAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	now := time.Now().UTC()
	record := toRecord(account)
	record["created_at"] = now
	record["updated_at"] = now

	stored, err := r.store.Create(ctx, ModelName, record)
	if err != nil {
		return nil, err
	}
	return fromRecord(stored)
}

// GetByID retrieves an account by ID.
func (r *StoreAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	stored, err := r.store.FindByID(ctx, ModelName, id.String())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return fromRecord(stored)
}

// ListByClient retrieves a client's accounts with pagination.
func (r *StoreAccountRepository) ListByClient(ctx context.Context, clientID uuid.UUID, offset, limit int) ([]*domain.Account, error) {
	stored, err := r.store.FindMany(ctx, ModelName,
		fieldcrypt.Filter{"client_id": clientID.String()}, offset, limit)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(stored))
	for _, record := range stored {
		account, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Update applies the account's mutable fields to the stored row.
func (r *StoreAccountRepository) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	record := toRecord(account)
	delete(record, "client_id")
	record["updated_at"] = time.Now().UTC()

	stored, err := r.store.Update(ctx, ModelName, account.ID.String(), record)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return fromRecord(stored)
}

// Delete removes an account by ID.
func (r *StoreAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.store.Delete(ctx, ModelName, id.String())
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	return err
}

func toRecord(account *domain.Account) fieldcrypt.Record {
	record := fieldcrypt.Record{
		"client_id": account.ClientID.String(),
		"name":      account.Name,
		"currency":  account.Currency,
	}
	if account.ID != uuid.Nil {
		record["id"] = account.ID.String()
	}
	if account.CreditLimit != nil {
		record["credit_limit"] = *account.CreditLimit
	} else {
		record["credit_limit"] = nil
	}
	if account.Notes != nil {
		record["notes"] = *account.Notes
	} else {
		record["notes"] = nil
	}
	return record
}

func fromRecord(record fieldcrypt.Record) (*domain.Account, error) {
	id, err := uuid.Parse(stringField(record, "id"))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse account id")
	}
	clientID, err := uuid.Parse(stringField(record, "client_id"))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse account client id")
	}

	account := &domain.Account{
		ID:          id,
		ClientID:    clientID,
		Name:        stringField(record, "name"),
		Currency:    stringField(record, "currency"),
		CreditLimit: optionalField(record, "credit_limit"),
		Notes:       optionalField(record, "notes"),
	}
	if t, ok := record["created_at"].(time.Time); ok {
		account.CreatedAt = t
	}
	if t, ok := record["updated_at"].(time.Time); ok {
		account.UpdatedAt = t
	}
	return account, nil
}

func stringField(record fieldcrypt.Record, key string) string {
	s, _ := record[key].(string)
	return s
}

func optionalField(record fieldcrypt.Record, key string) *string {
	s, ok := record[key].(string)
	if !ok {
		return nil
	}
	return &s
}
