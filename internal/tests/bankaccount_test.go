package tests

import (
	"context"
	"errors"
	"testing"

	"payments/internal/domain"
	"payments/internal/processor"
	"payments/internal/service"
)

func newBankAccountFixture(gateway *MockGateway) (*service.BankAccountService, *MockBankAccountRepository) {
	accountRepo := NewMockBankAccountRepository()
	return service.NewBankAccountService(accountRepo, gateway), accountRepo
}

func TestCreateBankAccount_Succeeds(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{}
	accountService, accountRepo := newBankAccountFixture(gateway)

	account, err := accountService.CreateBankAccount(context.Background(), service.CreateBankAccountRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
		EncryptedData:   "ZW5jcnlwdGVk",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Status != domain.BankAccountStatusPending {
		t.Errorf("expected status %s, got %s", domain.BankAccountStatusPending, account.Status)
	}
	if account.ProcessorToken == "" {
		t.Error("expected processor token to be persisted")
	}
	if accountRepo.GetAccount(account.ID) == nil {
		t.Error("expected bank account to be persisted")
	}
}

func TestCreateBankAccount_ProcessorDecline_PersistsNothing(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{AccountError: processor.ErrDeclined}
	accountService, accountRepo := newBankAccountFixture(gateway)

	_, err := accountService.CreateBankAccount(context.Background(), service.CreateBankAccountRequest{
		OwnerExternalID: "user-1",
		KeyID:           "key-1",
		EncryptedData:   "ZW5jcnlwdGVk",
	})
	if !errors.Is(err, processor.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got: %v", err)
	}
	if accountRepo.CreateCallCount != 0 {
		t.Error("a declined account must leave no local record")
	}
}

func TestGetBankAccountStatus_AppliesForwardTransition(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{AccountStatus: domain.BankAccountStatusComplete}
	accountService, accountRepo := newBankAccountFixture(gateway)
	accountRepo.AddAccount(&domain.BankAccount{ID: "acct-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.BankAccountStatusPending})

	status, err := accountService.GetBankAccountStatus(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if status != domain.BankAccountStatusComplete {
		t.Errorf("expected %s, got %s", domain.BankAccountStatusComplete, status)
	}
	if got := accountRepo.GetAccount("acct-1").Status; got != domain.BankAccountStatusComplete {
		t.Errorf("forward transition must be persisted, got %s", got)
	}
}

func TestGetWireInstructions_NotReadyWhilePending(t *testing.T) {
	t.Parallel()

	accountService, accountRepo := newBankAccountFixture(&MockGateway{})
	accountRepo.AddAccount(&domain.BankAccount{ID: "acct-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.BankAccountStatusPending})

	_, err := accountService.GetWireInstructions(context.Background(), "acct-1")
	if !errors.Is(err, service.ErrInstructionsNotReady) {
		t.Fatalf("expected ErrInstructionsNotReady, got: %v", err)
	}
}

func TestGetWireInstructions_NotReadyAfterFailure(t *testing.T) {
	t.Parallel()

	accountService, accountRepo := newBankAccountFixture(&MockGateway{})
	accountRepo.AddAccount(&domain.BankAccount{ID: "acct-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.BankAccountStatusFailed})

	_, err := accountService.GetWireInstructions(context.Background(), "acct-1")
	if !errors.Is(err, service.ErrInstructionsNotReady) {
		t.Fatalf("expected ErrInstructionsNotReady, got: %v", err)
	}
}

func TestGetWireInstructions_ServedOnceComplete(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{
		AccountStatus: domain.BankAccountStatusComplete,
		Instructions: &domain.WireInstructions{
			TrackingRef:     "TR4242",
			BeneficiaryName: "Acme Clearing",
			AccountNumber:   "123456789",
			RoutingNumber:   "021000021",
		},
	}
	accountService, accountRepo := newBankAccountFixture(gateway)
	accountRepo.AddAccount(&domain.BankAccount{ID: "acct-1", OwnerExternalID: "user-1", ProcessorToken: "tok", Status: domain.BankAccountStatusPending})

	// Poll the status first; instructions unlock once the account completes.
	if _, err := accountService.GetBankAccountStatus(context.Background(), "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	instructions, err := accountService.GetWireInstructions(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if instructions.TrackingRef != "TR4242" {
		t.Errorf("expected tracking ref TR4242, got %s", instructions.TrackingRef)
	}
	if instructions.AccountNumber != "123456789" {
		t.Errorf("unexpected account number %s", instructions.AccountNumber)
	}
}
