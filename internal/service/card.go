package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"payments/internal/domain"
	"payments/internal/metrics"
	"payments/internal/processor"
	"payments/internal/repository"
)

// CardService manages the card side of the instrument registry.
type CardService struct {
	cardRepo repository.CardRepository
	gateway  processor.Gateway
	txRunner TxRunner
}

// NewCardService creates a new CardService.
func NewCardService(cardRepo repository.CardRepository, gateway processor.Gateway, txRunner TxRunner) *CardService {
	return &CardService{
		cardRepo: cardRepo,
		gateway:  gateway,
		txRunner: txRunner,
	}
}

// CreateCardRequest contains the parameters for registering a card. The
// card data arrives encrypted with the published public key; only the
// processor ever sees it.
type CreateCardRequest struct {
	OwnerExternalID string
	KeyID           string
	EncryptedData   string
	Billing         domain.BillingDetails
	Default         bool
}

// CreateCard tokenizes the encrypted card data at the processor and persists
// the resulting token in PENDING state. A processor decline leaves no local
// record.
func (s *CardService) CreateCard(ctx context.Context, req CreateCardRequest) (*domain.Card, error) {
	if req.OwnerExternalID == "" {
		return nil, ErrInvalidOwnerID
	}
	if req.KeyID == "" || req.EncryptedData == "" {
		return nil, ErrInvalidEncryptedData
	}

	result, err := s.gateway.CreateCard(ctx, processor.CreateCardRequest{
		OwnerExternalID: req.OwnerExternalID,
		KeyID:           req.KeyID,
		EncryptedData:   req.EncryptedData,
		Billing:         req.Billing,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	card := &domain.Card{
		ID:              uuid.New().String(),
		OwnerExternalID: req.OwnerExternalID,
		ProcessorToken:  result.Token,
		Status:          result.Status,
		Default:         req.Default,
		Billing:         req.Billing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if req.Default {
			if err := repos.Cards.ClearDefault(ctx, req.OwnerExternalID); err != nil {
				return err
			}
		}
		return repos.Cards.Create(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	metrics.InstrumentsCreated.WithLabelValues("card").Inc()
	return card, nil
}

// UpdateCardRequest contains the mutable card fields for a partial update.
type UpdateCardRequest struct {
	Billing *domain.BillingDetails
	Default *bool
}

// UpdateCard applies a partial update of mutable metadata. Marking a card as
// default clears the flag on the owner's other cards in the same transaction.
func (s *CardService) UpdateCard(ctx context.Context, cardID string, req UpdateCardRequest) error {
	if cardID == "" {
		return ErrInvalidCardID
	}
	if req.Billing == nil && req.Default == nil {
		return ErrEmptyPatch
	}

	card, err := s.getActive(ctx, cardID)
	if err != nil {
		return err
	}

	return s.txRunner.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if req.Default != nil && *req.Default {
			if err := repos.Cards.ClearDefault(ctx, card.OwnerExternalID); err != nil {
				return err
			}
		}
		return repos.Cards.Update(ctx, cardID, repository.CardPatch{
			Billing: req.Billing,
			Default: req.Default,
		})
	})
}

// GetCards returns all active cards for an owner. An owner with no cards
// gets an empty slice, not an error.
func (s *CardService) GetCards(ctx context.Context, ownerExternalID string) ([]*domain.Card, error) {
	if ownerExternalID == "" {
		return nil, ErrInvalidOwnerID
	}

	return s.cardRepo.GetByOwner(ctx, ownerExternalID)
}

// GetCardStatus re-queries the processor for the card's verification status
// rather than trusting the local copy, persists any forward transition, and
// returns the freshest status. A gateway failure never mutates local state.
func (s *CardService) GetCardStatus(ctx context.Context, cardID string) (domain.CardStatus, error) {
	card, err := s.getActive(ctx, cardID)
	if err != nil {
		return "", err
	}

	status, err := s.gateway.CardStatus(ctx, card.ProcessorToken)
	if err != nil {
		return "", err
	}

	if card.Status.CanTransitionTo(status) {
		// Compare-and-set: a racing status check that already applied a
		// newer transition wins, and this write becomes a no-op.
		if _, err := s.cardRepo.UpdateStatusFrom(ctx, card.ID, card.Status, status); err != nil {
			return "", err
		}
		return status, nil
	}

	return card.Status, nil
}

// RemoveCard removes the card at the processor first, then soft-deletes the
// local record, so no processor-side instrument is ever orphaned.
func (s *CardService) RemoveCard(ctx context.Context, cardID string) error {
	card, err := s.getActive(ctx, cardID)
	if err != nil {
		return err
	}

	if err := s.gateway.RemoveCard(ctx, card.ProcessorToken); err != nil && !errors.Is(err, processor.ErrNotFound) {
		return err
	}

	return s.cardRepo.Remove(ctx, cardID)
}

func (s *CardService) getActive(ctx context.Context, cardID string) (*domain.Card, error) {
	if cardID == "" {
		return nil, ErrInvalidCardID
	}

	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.Removed {
		return nil, repository.ErrNotFound
	}

	return card, nil
}
