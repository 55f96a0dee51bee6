// Package repository provides data persistence for client entities on top of
// the generic record store. Encryption is transparent here: the store this
// repository receives is already wrapped by the field interception layer.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/client/domain"
	"github.com/allisson/ledger/internal/fieldcrypt"

	apperrors "github.com/allisson/ledger/internal/errors"
)

// ModelName is the client model name in the store and the field encryption
// configuration.
const ModelName = "clients"

// StoreClientRepository handles client persistence through a record store.
type StoreClientRepository struct {
	store fieldcrypt.Store
}

// NewStoreClientRepository creates a new StoreClientRepository.
func NewStoreClientRepository(store fieldcrypt.Store) *StoreClientRepository {
	return &StoreClientRepository{store: store}
}

// Create inserts a new client.
func (r *StoreClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	now := time.Now().UTC()
	record := toRecord(client)
	record["created_at"] = now
	record["updated_at"] = now

	stored, err := r.store.Create(ctx, ModelName, record)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, domain.ErrClientAlreadyExists
		}
		return nil, err
	}
	return fromRecord(stored)
}

// GetByID retrieves a client by ID.
func (r *StoreClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	stored, err := r.store.FindByID(ctx, ModelName, id.String())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return fromRecord(stored)
}

// GetByEmailHash retrieves a client by the deterministic email lookup token.
func (r *StoreClientRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.Client, error) {
	stored, err := r.store.FindMany(ctx, ModelName, fieldcrypt.Filter{"email_hash": emailHash}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, domain.ErrClientNotFound
	}
	return fromRecord(stored[0])
}

// List retrieves clients ordered by id with pagination.
func (r *StoreClientRepository) List(ctx context.Context, offset, limit int) ([]*domain.Client, error) {
	stored, err := r.store.FindMany(ctx, ModelName, nil, offset, limit)
	if err != nil {
		return nil, err
	}

	clients := make([]*domain.Client, 0, len(stored))
	for _, record := range stored {
		client, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// Update applies the client's mutable fields to the stored row.
func (r *StoreClientRepository) Update(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	record := toRecord(client)
	record["updated_at"] = time.Now().UTC()

	stored, err := r.store.Update(ctx, ModelName, client.ID.String(), record)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrClientNotFound
		}
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, domain.ErrClientAlreadyExists
		}
		return nil, err
	}
	return fromRecord(stored)
}

// Delete removes a client by ID.
func (r *StoreClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.store.Delete(ctx, ModelName, id.String())
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return domain.ErrClientNotFound
	}
	return err
}

func toRecord(client *domain.Client) fieldcrypt.Record {
	record := fieldcrypt.Record{
		"name":       client.Name,
		"email":      client.Email,
		"email_hash": client.EmailHash,
	}
	if client.ID != uuid.Nil {
		record["id"] = client.ID.String()
	}
	if client.PhoneNumber != nil {
		record["phone_number"] = *client.PhoneNumber
	} else {
		record["phone_number"] = nil
	}
	if client.Notes != nil {
		record["notes"] = *client.Notes
	} else {
		record["notes"] = nil
	}
	return record
}

func fromRecord(record fieldcrypt.Record) (*domain.Client, error) {
	id, err := uuid.Parse(stringField(record, "id"))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse client id")
	}

	client := &domain.Client{
		ID:          id,
		Name:        stringField(record, "name"),
		Email:       stringField(record, "email"),
		EmailHash:   stringField(record, "email_hash"),
		PhoneNumber: optionalField(record, "phone_number"),
		Notes:       optionalField(record, "notes"),
	}
	if t, ok := record["created_at"].(time.Time); ok {
		client.CreatedAt = t
	}
	if t, ok := record["updated_at"].(time.Time); ok {
		client.UpdatedAt = t
	}
	return client, nil
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
