package repository

import (
	"context"

	"payments/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. Returns ErrDuplicateKey if a payment
	// with the same idempotency key already exists.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByIdempotencyKey retrieves a payment by its idempotency key.
	// Returns nil if no payment exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// SetProcessorResult records the gateway's synchronous answer for a
	// freshly created payment: the processor reference and the accepted
	// status.
	SetProcessorResult(ctx context.Context, id, processorRef string, status domain.PaymentStatus) error

	// UpdateStatusFrom applies a status transition only if the persisted
	// status still equals from. Reports whether the row was updated, so
	// racing reconcilers lose cleanly instead of clobbering newer state.
	UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error)

	// ListByStatuses retrieves payments whose status is one of the given
	// values, oldest first. Used by the reconciliation worker.
	ListByStatuses(ctx context.Context, statuses []domain.PaymentStatus, limit int) ([]*domain.Payment, error)

	// List retrieves a page of payments, newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.Payment, error)
}
