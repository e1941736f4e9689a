package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"payments/internal/domain"
	"payments/internal/metrics"
	"payments/internal/processor"
	"payments/internal/repository"
)

// BankAccountService manages the bank-account side of the instrument
// registry.
type BankAccountService struct {
	accountRepo repository.BankAccountRepository
	gateway     processor.Gateway
}

// NewBankAccountService creates a new BankAccountService.
func NewBankAccountService(accountRepo repository.BankAccountRepository, gateway processor.Gateway) *BankAccountService {
	return &BankAccountService{
		accountRepo: accountRepo,
		gateway:     gateway,
	}
}

// CreateBankAccountRequest contains the parameters for registering a bank
// account.
type CreateBankAccountRequest struct {
	OwnerExternalID string
	KeyID           string
	EncryptedData   string
}

// CreateBankAccount tokenizes the encrypted account details at the
// processor and persists the resulting token. A processor decline leaves no
// local record.
func (s *BankAccountService) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*domain.BankAccount, error) {
	if req.OwnerExternalID == "" {
		return nil, ErrInvalidOwnerID
	}
	if req.KeyID == "" || req.EncryptedData == "" {
		return nil, ErrInvalidEncryptedData
	}

	result, err := s.gateway.CreateBankAccount(ctx, processor.CreateBankAccountRequest{
		OwnerExternalID: req.OwnerExternalID,
		KeyID:           req.KeyID,
		EncryptedData:   req.EncryptedData,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &domain.BankAccount{
		ID:              uuid.New().String(),
		OwnerExternalID: req.OwnerExternalID,
		ProcessorToken:  result.Token,
		Status:          result.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	metrics.InstrumentsCreated.WithLabelValues("bank_account").Inc()
	return account, nil
}

// GetBankAccountStatus re-queries the processor for the account's status,
// persists any forward transition, and returns the freshest status.
func (s *BankAccountService) GetBankAccountStatus(ctx context.Context, accountID string) (domain.BankAccountStatus, error) {
	if accountID == "" {
		return "", ErrInvalidBankAccountID
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	status, err := s.gateway.BankAccountStatus(ctx, account.ProcessorToken)
	if err != nil {
		return "", err
	}

	if account.Status.CanTransitionTo(status) {
		if _, err := s.accountRepo.UpdateStatusFrom(ctx, account.ID, account.Status, status); err != nil {
			return "", err
		}
		return status, nil
	}

	return account.Status, nil
}

// GetWireInstructions returns the processor-generated wire-transfer
// instructions for a funding-eligible account. Requested too early it fails
// with ErrInstructionsNotReady; callers poll the status endpoint first.
func (s *BankAccountService) GetWireInstructions(ctx context.Context, accountID string) (*domain.WireInstructions, error) {
	if accountID == "" {
		return nil, ErrInvalidBankAccountID
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.Status.FundingEligible() {
		return nil, ErrInstructionsNotReady
	}

	return s.gateway.WireInstructions(ctx, account.ProcessorToken)
}
