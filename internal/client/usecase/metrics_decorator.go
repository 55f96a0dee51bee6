package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/client/domain"
	"github.com/allisson/ledger/internal/metrics"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next UseCase
	m    metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next: useCase,
		m:    m,
	}
}

func (u *useCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.m.RecordOperation(ctx, "clients", operation, status)
	u.m.RecordDuration(ctx, "clients", operation, time.Since(start), status)
}

// CreateClient records metrics for client creation operations.
func (u *useCaseWithMetrics) CreateClient(ctx context.Context, input CreateClientInput) (*domain.Client, error) {
	start := time.Now()
	client, err := u.next.CreateClient(ctx, input)
	u.record(ctx, "client_create", start, err)
	return client, err
}

// GetClientByID records metrics for client retrieval operations.
func (u *useCaseWithMetrics) GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	start := time.Now()
	client, err := u.next.GetClientByID(ctx, id)
	u.record(ctx, "client_get", start, err)
	return client, err
}

// GetClientByEmail records metrics for email lookup operations.
func (u *useCaseWithMetrics) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	start := time.Now()
	client, err := u.next.GetClientByEmail(ctx, email)
	u.record(ctx, "client_get_by_email", start, err)
	return client, err
}

// ListClients records metrics for client list operations.
func (u *useCaseWithMetrics) ListClients(ctx context.Context, offset, limit int) ([]*domain.Client, error) {
	start := time.Now()
	clients, err := u.next.ListClients(ctx, offset, limit)
	u.record(ctx, "client_list", start, err)
	return clients, err
}

// UpdateClient records metrics for client update operations.
func (u *useCaseWithMetrics) UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*domain.Client, error) {
	start := time.Now()
	client, err := u.next.UpdateClient(ctx, id, input)
	u.record(ctx, "client_update", start, err)
	return client, err
}

// DeleteClient records metrics for client deletion operations.
func (u *useCaseWithMetrics) DeleteClient(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.DeleteClient(ctx, id)
	u.record(ctx, "client_delete", start, err)
	return err
}
