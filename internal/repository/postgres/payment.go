package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"payments/internal/domain"
	"payments/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `id, owner_external_id, amount, currency, card_id, bank_account_id, status, idempotency_key, processor_ref, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.OwnerExternalID,
		&p.Amount,
		&p.Currency,
		&p.CardID,
		&p.BankAccountID,
		&p.Status,
		&p.IdempotencyKey,
		&p.ProcessorRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, owner_external_id, amount, currency, card_id, bank_account_id, status, idempotency_key, processor_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.OwnerExternalID,
		payment.Amount,
		payment.Currency,
		payment.CardID,
		payment.BankAccountID,
		payment.Status,
		payment.IdempotencyKey,
		payment.ProcessorRef,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
// Returns nil if no payment exists with the given key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

// SetProcessorResult records the gateway's synchronous answer for a freshly
// created payment.
func (r *PaymentRepository) SetProcessorResult(ctx context.Context, id, processorRef string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET processor_ref = $1, status = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, processorRef, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatusFrom applies a status transition only if the persisted status
// still equals from.
func (r *PaymentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	query := `UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

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

// ListByStatuses retrieves payments whose status is one of the given values,
// oldest first.
func (r *PaymentRepository) ListByStatuses(ctx context.Context, statuses []domain.PaymentStatus, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE status = ANY($1)
		ORDER BY created_at ASC LIMIT $2
	`

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.q.QueryContext(ctx, query, pq.Array(values), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// List retrieves a page of payments, newest first.
func (r *PaymentRepository) List(ctx context.Context, offset, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments ORDER BY created_at DESC OFFSET $1 LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]*domain.Payment, error) {
	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
