package postgres

import (
	"context"
	"database/sql"
)

// InitSchema creates the tables and indexes the service needs. The unique
// index on idempotency_key is what makes duplicate payment submissions
// detectable under concurrency.
func InitSchema(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(64) PRIMARY KEY,
			owner_external_id VARCHAR(255) NOT NULL,
			amount BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			card_id VARCHAR(64) NOT NULL DEFAULT '',
			bank_account_id VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			idempotency_key VARCHAR(255) NOT NULL,
			processor_ref VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_idempotency_key ON payments(idempotency_key)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_owner ON payments(owner_external_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id VARCHAR(64) PRIMARY KEY,
			owner_external_id VARCHAR(255) NOT NULL,
			processor_token VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			billing_name VARCHAR(255) NOT NULL DEFAULT '',
			billing_address1 VARCHAR(255) NOT NULL DEFAULT '',
			billing_address2 VARCHAR(255) NOT NULL DEFAULT '',
			billing_city VARCHAR(255) NOT NULL DEFAULT '',
			billing_district VARCHAR(255) NOT NULL DEFAULT '',
			billing_country VARCHAR(8) NOT NULL DEFAULT '',
			billing_postal_code VARCHAR(32) NOT NULL DEFAULT '',
			removed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(owner_external_id)`,
		`CREATE TABLE IF NOT EXISTS bank_accounts (
			id VARCHAR(64) PRIMARY KEY,
			owner_external_id VARCHAR(255) NOT NULL,
			processor_token VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bank_accounts_owner ON bank_accounts(owner_external_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}
