package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"payments/internal/domain"
)

// Simulator is an in-process Gateway used for local runs and tests. Cards
// verify and bank accounts complete on the second status poll; charges
// settle on the second reconciliation query. An encrypted payload equal to
// DeclineMarker is rejected, which exercises the decline path end to end.
type Simulator struct {
	mu       sync.Mutex
	cards    map[string]int // token -> poll count
	accounts map[string]int
	charges  map[string]int
	keyID    string
}

// DeclineMarker makes the simulator reject a tokenization or charge.
const DeclineMarker = "DECLINE"

// NewSimulator creates a simulated processor gateway.
func NewSimulator() *Simulator {
	return &Simulator{
		cards:    make(map[string]int),
		accounts: make(map[string]int),
		charges:  make(map[string]int),
		keyID:    uuid.New().String(),
	}
}

func (s *Simulator) CreateCard(ctx context.Context, req CreateCardRequest) (*CardResult, error) {
	if req.EncryptedData == DeclineMarker {
		return nil, ErrDeclined
	}
	token := "card_" + uuid.New().String()
	s.mu.Lock()
	s.cards[token] = 0
	s.mu.Unlock()
	return &CardResult{Token: token, Status: domain.CardStatusPending}, nil
}

func (s *Simulator) CardStatus(ctx context.Context, token string) (domain.CardStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	polls, ok := s.cards[token]
	if !ok {
		return "", ErrNotFound
	}
	s.cards[token] = polls + 1
	if polls == 0 {
		return domain.CardStatusPending, nil
	}
	return domain.CardStatusVerified, nil
}

func (s *Simulator) RemoveCard(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Removing an already absent token is a success: the desired end state
	// holds either way.
	delete(s.cards, token)
	return nil
}

func (s *Simulator) CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*BankAccountResult, error) {
	if req.EncryptedData == DeclineMarker {
		return nil, ErrDeclined
	}
	token := "bank_" + uuid.New().String()
	s.mu.Lock()
	s.accounts[token] = 0
	s.mu.Unlock()
	return &BankAccountResult{Token: token, Status: domain.BankAccountStatusPending}, nil
}

func (s *Simulator) BankAccountStatus(ctx context.Context, token string) (domain.BankAccountStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	polls, ok := s.accounts[token]
	if !ok {
		return "", ErrNotFound
	}
	s.accounts[token] = polls + 1
	if polls == 0 {
		return domain.BankAccountStatusPending, nil
	}
	return domain.BankAccountStatusComplete, nil
}

func (s *Simulator) WireInstructions(ctx context.Context, token string) (*domain.WireInstructions, error) {
	s.mu.Lock()
	_, ok := s.accounts[token]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &domain.WireInstructions{
		TrackingRef:     fmt.Sprintf("TR%08d", len(token)),
		BeneficiaryName: "Payments Sandbox Inc",
		BeneficiaryBank: "SANDBOX BANK",
		BankAddress:     "1 Main Street, Springfield",
		AccountNumber:   "123456789",
		RoutingNumber:   "021000021",
		SwiftCode:       "SNDBUS33",
	}, nil
}

func (s *Simulator) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Token == "" {
		return nil, ErrNotFound
	}
	ref := "charge_" + uuid.New().String()
	s.mu.Lock()
	s.charges[ref] = 0
	s.mu.Unlock()
	return &ChargeResult{Ref: ref, Status: domain.PaymentStatusProcessing}, nil
}

func (s *Simulator) ChargeStatus(ctx context.Context, ref string) (domain.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	polls, ok := s.charges[ref]
	if !ok {
		return "", ErrNotFound
	}
	s.charges[ref] = polls + 1
	if polls == 0 {
		return domain.PaymentStatusProcessing, nil
	}
	return domain.PaymentStatusCompleted, nil
}

func (s *Simulator) PublicKey(ctx context.Context) (*domain.PublicKey, error) {
	return &domain.PublicKey{
		KeyID:     s.keyID,
		PublicKey: "LS0tLS1CRUdJTiBQR1AgUFVCTElDIEtFWSBCTE9DSy0tLS0t",
	}, nil
}

var _ Gateway = (*Simulator)(nil)
