package tests

import (
	"context"
	"errors"
	"testing"

	"payments/internal/domain"
	"payments/internal/processor"
	"payments/internal/repository"
	"payments/internal/service"
)

func newCardFixture(gateway *MockGateway) (*service.CardService, *MockCardRepository) {
	cardRepo := NewMockCardRepository()
	txRunner := NewMockTxRunner(nil, cardRepo, nil)
	return service.NewCardService(cardRepo, gateway, txRunner), cardRepo
}

func TestCreateCard_Succeeds(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{}
	cardService, cardRepo := newCardFixture(gateway)

	card, err := cardService.CreateCard(context.Background(), service.CreateCardRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
		EncryptedData:   "ZW5jcnlwdGVk",
		Billing:         domain.BillingDetails{Name: "Ada Lovelace", PostalCode: "12345"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if card.Status != domain.CardStatusPending {
		t.Errorf("expected status %s, got %s", domain.CardStatusPending, card.Status)
	}
	if card.ProcessorToken == "" {
		t.Error("expected processor token to be persisted")
	}
	if stored := cardRepo.GetCard(card.ID); stored == nil {
		t.Error("expected card to be persisted")
	}
}

func TestCreateCard_MissingEncryptedData_Invalid(t *testing.T) {
	t.Parallel()

	cardService, cardRepo := newCardFixture(&MockGateway{})

	_, err := cardService.CreateCard(context.Background(), service.CreateCardRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
	})
	if !errors.Is(err, service.ErrInvalidEncryptedData) {
		t.Fatalf("expected ErrInvalidEncryptedData, got: %v", err)
	}
	if cardRepo.CreateCallCount != 0 {
		t.Error("nothing must be persisted on validation failure")
	}
}

func TestCreateCard_ProcessorDecline_PersistsNothing(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{CardError: processor.ErrDeclined}
	cardService, cardRepo := newCardFixture(gateway)

	_, err := cardService.CreateCard(context.Background(), service.CreateCardRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
		EncryptedData:   "ZW5jcnlwdGVk",
	})
	if !errors.Is(err, processor.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got: %v", err)
	}
	if cardRepo.CreateCallCount != 0 {
		t.Error("a declined card must leave no local record")
	}
}

func TestCreateCard_DefaultClearsPreviousDefault(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-old", OwnerExternalID: "user-1", Default: true, Status: domain.CardStatusVerified})

	card, err := cardService.CreateCard(context.Background(), service.CreateCardRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
		EncryptedData:   "ZW5jcnlwdGVk",
		Default:         true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cardRepo.GetCard(card.ID).Default {
		t.Error("new card must be the default")
	}
	if cardRepo.GetCard("card-old").Default {
		t.Error("previous default must be cleared in the same transaction")
	}
}

func TestGetCardStatus_AppliesForwardTransition(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{CardStatusResult: domain.CardStatusVerified}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusPending})

	status, err := cardService.GetCardStatus(context.Background(), "card-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if status != domain.CardStatusVerified {
		t.Errorf("expected %s, got %s", domain.CardStatusVerified, status)
	}
	if got := cardRepo.GetCard("card-1").Status; got != domain.CardStatusVerified {
		t.Errorf("forward transition must be persisted, got %s", got)
	}
}

func TestGetCardStatus_NeverDowngrades(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{CardStatusResult: domain.CardStatusPending}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusVerified})

	status, err := cardService.GetCardStatus(context.Background(), "card-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if status != domain.CardStatusVerified {
		t.Errorf("stale processor status must be ignored, got %s", status)
	}
	if got := cardRepo.GetCard("card-1").Status; got != domain.CardStatusVerified {
		t.Errorf("local status must be untouched, got %s", got)
	}
}

func TestGetCardStatus_GatewayErrorLeavesLocalStateAlone(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{CardStatusError: errors.New("rail unreachable")}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusPending})

	_, err := cardService.GetCardStatus(context.Background(), "card-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := cardRepo.GetCard("card-1").Status; got != domain.CardStatusPending {
		t.Errorf("local status must be untouched on gateway error, got %s", got)
	}
}

func TestUpdateCard_EmptyPatch_Rejected(t *testing.T) {
	t.Parallel()

	cardService, cardRepo := newCardFixture(&MockGateway{})
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", Status: domain.CardStatusVerified})

	err := cardService.UpdateCard(context.Background(), "card-1", service.UpdateCardRequest{})
	if !errors.Is(err, service.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got: %v", err)
	}
}

func TestUpdateCard_MakeDefault_ClearsOthers(t *testing.T) {
	t.Parallel()

	cardService, cardRepo := newCardFixture(&MockGateway{})
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", Default: true, Status: domain.CardStatusVerified})
	cardRepo.AddCard(&domain.Card{ID: "card-2", OwnerExternalID: "user-1", Status: domain.CardStatusVerified})

	makeDefault := true
	err := cardService.UpdateCard(context.Background(), "card-2", service.UpdateCardRequest{Default: &makeDefault})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cardRepo.GetCard("card-1").Default {
		t.Error("old default must be cleared")
	}
	if !cardRepo.GetCard("card-2").Default {
		t.Error("updated card must be the default")
	}
}

func TestRemoveCard_ProcessorFirstThenSoftDelete(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusVerified})

	if err := cardService.RemoveCard(context.Background(), "card-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gateway.RemoveCardCallCount != 1 {
		t.Errorf("expected 1 processor removal, got %d", gateway.RemoveCardCallCount)
	}
	if !cardRepo.GetCard("card-1").Removed {
		t.Error("card must be soft-deleted locally")
	}

	cards, err := cardService.GetCards(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("removed card must not be listed, got %d cards", len(cards))
	}

	// The removed card behaves as if it never existed.
	if _, err := cardService.GetCardStatus(context.Background(), "card-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for removed card, got: %v", err)
	}
}

func TestRemoveCard_ProcessorAlreadyForgotIt_StillRemovesLocally(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{RemoveCardError: processor.ErrNotFound}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusVerified})

	if err := cardService.RemoveCard(context.Background(), "card-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cardRepo.GetCard("card-1").Removed {
		t.Error("card must be soft-deleted even when the processor already forgot it")
	}
}

func TestRemoveCard_ProcessorFailure_KeepsLocalRecord(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{RemoveCardError: errors.New("rail unreachable")}
	cardService, cardRepo := newCardFixture(gateway)
	cardRepo.AddCard(&domain.Card{ID: "card-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.CardStatusVerified})

	if err := cardService.RemoveCard(context.Background(), "card-1"); err == nil {
		t.Fatal("expected error")
	}
	if cardRepo.GetCard("card-1").Removed {
		t.Error("local record must survive a failed processor removal")
	}
}

func TestGetCards_NoCards_EmptySlice(t *testing.T) {
	t.Parallel()

	cardService, _ := newCardFixture(&MockGateway{})

	cards, err := cardService.GetCards(context.Background(), "user-without-cards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Errorf("expected empty slice, got %v", cards)
	}
}
