package repository

import (
	"context"

	"payments/internal/domain"
)

// CardPatch carries the mutable card fields for a partial update. Nil
// pointers mean "leave unchanged".
type CardPatch struct {
	Billing *domain.BillingDetails
	Default *bool
}

// CardRepository defines the persistence operations for cards.
type CardRepository interface {
	// Create persists a new card.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by ID. Removed cards are still returned;
	// callers decide whether removal matters.
	GetByID(ctx context.Context, id string) (*domain.Card, error)

	// GetByOwner retrieves all non-removed cards for an owner.
	GetByOwner(ctx context.Context, ownerExternalID string) ([]*domain.Card, error)

	// Update applies a partial update of mutable metadata.
	Update(ctx context.Context, id string, patch CardPatch) error

	// ClearDefault clears the default flag on all of the owner's cards.
	ClearDefault(ctx context.Context, ownerExternalID string) error

	// UpdateStatusFrom applies a status transition only if the persisted
	// status still equals from. Reports whether the row was updated.
	UpdateStatusFrom(ctx context.Context, id string, from, to domain.CardStatus) (bool, error)

	// Remove soft-deletes a card.
	Remove(ctx context.Context, id string) error
}
