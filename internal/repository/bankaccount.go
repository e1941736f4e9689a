package repository

import (
	"context"

	"payments/internal/domain"
)

// BankAccountRepository defines the persistence operations for bank accounts.
type BankAccountRepository interface {
	// Create persists a new bank account.
	Create(ctx context.Context, account *domain.BankAccount) error

	// GetByID retrieves a bank account by ID.
	GetByID(ctx context.Context, id string) (*domain.BankAccount, error)

	// UpdateStatusFrom applies a status transition only if the persisted
	// status still equals from. Reports whether the row was updated.
	UpdateStatusFrom(ctx context.Context, id string, from, to domain.BankAccountStatus) (bool, error)
}
