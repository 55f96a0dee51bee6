package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/account/domain"
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

	u.m.RecordOperation(ctx, "accounts", operation, status)
	u.m.RecordDuration(ctx, "accounts", operation, time.Since(start), status)
}

// CreateAccount records metrics for account creation operations.
func (u *useCaseWithMetrics) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	start := time.Now()
	account, err := u.next.CreateAccount(ctx, input)
	u.record(ctx, "account_create", start, err)
	return account, err
}

// GetAccountByID records metrics for account retrieval operations.
func (u *useCaseWithMetrics) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	start := time.Now()
	account, err := u.next.GetAccountByID(ctx, id)
	u.record(ctx, "account_get", start, err)
	return account, err
}

// ListAccountsByClient records metrics for account list operations.
func (u *useCaseWithMetrics) ListAccountsByClient(
	ctx context.Context,
	clientID uuid.UUID,
	offset, limit int,
) ([]*domain.Account, error) {
	start := time.Now()
	accounts, err := u.next.ListAccountsByClient(ctx, clientID, offset, limit)
	u.record(ctx, "account_list", start, err)
	return accounts, err
}

// UpdateAccount records metrics for account update operations.
func (u *useCaseWithMetrics) UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error) {
	start := time.Now()
	account, err := u.next.UpdateAccount(ctx, id, input)
	u.record(ctx, "account_update", start, err)
	return account, err
}

// DeleteAccount records metrics for account deletion operations.
func (u *useCaseWithMetrics) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.DeleteAccount(ctx, id)
	u.record(ctx, "account_delete", start, err)
	return err
}
