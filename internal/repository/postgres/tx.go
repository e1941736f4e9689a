package postgres

import (
	"context"
	"database/sql"

	"payments/internal/service"
)

// TxRunner is the PostgreSQL implementation of service.TxRunner.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner backed by db.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx begins a transaction, hands transaction-scoped repositories to
// fn, and commits. Any error from fn rolls the transaction back.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos service.TxRepos) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	repos := service.TxRepos{
		Payments:     NewPaymentRepositoryWithTx(tx),
		Cards:        NewCardRepositoryWithTx(tx),
		BankAccounts: NewBankAccountRepositoryWithTx(tx),
	}

	if err := fn(ctx, repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

var _ service.TxRunner = (*TxRunner)(nil)
