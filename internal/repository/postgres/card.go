package postgres

import (
	"context"
	"database/sql"
	"errors"

	"payments/internal/domain"
	"payments/internal/repository"
)

// CardRepository is a PostgreSQL implementation of repository.CardRepository.
type CardRepository struct {
	q Querier
}

// NewCardRepository creates a new PostgreSQL card repository.
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{q: db}
}

// NewCardRepositoryWithTx creates a card repository using a transaction.
func NewCardRepositoryWithTx(tx *sql.Tx) *CardRepository {
	return &CardRepository{q: tx}
}

const cardColumns = `id, owner_external_id, processor_token, status, is_default, billing_name, billing_address1, billing_address2, billing_city, billing_district, billing_country, billing_postal_code, removed, created_at, updated_at`

func scanCard(row interface{ Scan(...any) error }) (*domain.Card, error) {
	var c domain.Card
	err := row.Scan(
		&c.ID,
		&c.OwnerExternalID,
		&c.ProcessorToken,
		&c.Status,
		&c.Default,
		&c.Billing.Name,
		&c.Billing.Address1,
		&c.Billing.Address2,
		&c.Billing.City,
		&c.Billing.District,
		&c.Billing.Country,
		&c.Billing.PostalCode,
		&c.Removed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists a new card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, owner_external_id, processor_token, status, is_default, billing_name, billing_address1, billing_address2, billing_city, billing_district, billing_country, billing_postal_code, removed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		card.ID,
		card.OwnerExternalID,
		card.ProcessorToken,
		card.Status,
		card.Default,
		card.Billing.Name,
		card.Billing.Address1,
		card.Billing.Address2,
		card.Billing.City,
		card.Billing.District,
		card.Billing.Country,
		card.Billing.PostalCode,
		card.Removed,
		card.CreatedAt,
		card.UpdatedAt,
	)

	return err
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return card, nil
}

// GetByOwner retrieves all non-removed cards for an owner.
func (r *CardRepository) GetByOwner(ctx context.Context, ownerExternalID string) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards WHERE owner_external_id = $1 AND removed = FALSE
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, ownerExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// Update applies a partial update of mutable metadata.
func (r *CardRepository) Update(ctx context.Context, id string, patch repository.CardPatch) error {
	if patch.Billing != nil {
		query := `
			UPDATE cards SET billing_name = $1, billing_address1 = $2, billing_address2 = $3, billing_city = $4, billing_district = $5, billing_country = $6, billing_postal_code = $7, updated_at = NOW()
			WHERE id = $8
		`
		result, err := r.q.ExecContext(ctx, query,
			patch.Billing.Name,
			patch.Billing.Address1,
			patch.Billing.Address2,
			patch.Billing.City,
			patch.Billing.District,
			patch.Billing.Country,
			patch.Billing.PostalCode,
			id,
		)
		if err != nil {
			return err
		}
		if err := requireRow(result); err != nil {
			return err
		}
	}

	if patch.Default != nil {
		query := `UPDATE cards SET is_default = $1, updated_at = NOW() WHERE id = $2`
		result, err := r.q.ExecContext(ctx, query, *patch.Default, id)
		if err != nil {
			return err
		}
		if err := requireRow(result); err != nil {
			return err
		}
	}

	return nil
}

// ClearDefault clears the default flag on all of the owner's cards.
func (r *CardRepository) ClearDefault(ctx context.Context, ownerExternalID string) error {
	query := `UPDATE cards SET is_default = FALSE, updated_at = NOW() WHERE owner_external_id = $1 AND is_default = TRUE`

	_, err := r.q.ExecContext(ctx, query, ownerExternalID)
	return err
}

// UpdateStatusFrom applies a status transition only if the persisted status
// still equals from.
func (r *CardRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.CardStatus) (bool, error) {
	query := `UPDATE cards SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

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

// Remove soft-deletes a card.
func (r *CardRepository) Remove(ctx context.Context, id string) error {
	query := `UPDATE cards SET removed = TRUE, is_default = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
