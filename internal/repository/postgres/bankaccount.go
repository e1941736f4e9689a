package postgres

import (
	"context"
	"database/sql"
	"errors"

	"payments/internal/domain"
	"payments/internal/repository"
)

// BankAccountRepository is a PostgreSQL implementation of repository.BankAccountRepository.
type BankAccountRepository struct {
	q Querier
}

// NewBankAccountRepository creates a new PostgreSQL bank account repository.
func NewBankAccountRepository(db *sql.DB) *BankAccountRepository {
	return &BankAccountRepository{q: db}
}

// NewBankAccountRepositoryWithTx creates a bank account repository using a transaction.
func NewBankAccountRepositoryWithTx(tx *sql.Tx) *BankAccountRepository {
	return &BankAccountRepository{q: tx}
}

const bankAccountColumns = `id, owner_external_id, processor_token, status, created_at, updated_at`

// Create persists a new bank account.
func (r *BankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, owner_external_id, processor_token, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.OwnerExternalID,
		account.ProcessorToken,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

// GetByID retrieves a bank account by ID.
func (r *BankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`

	var a domain.BankAccount
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.OwnerExternalID,
		&a.ProcessorToken,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &a, nil
}

// UpdateStatusFrom applies a status transition only if the persisted status
// still equals from.
func (r *BankAccountRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.BankAccountStatus) (bool, error) {
	query := `UPDATE bank_accounts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
