package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"payments/internal/domain"
	"payments/internal/processor"
	"payments/internal/repository"
	"payments/internal/service"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byKey    map[string]string // idempotency key -> payment id

	// Counters for verification
	CreateCallCount           int32
	UpdateStatusFromCallCount int32

	// Error injection
	CreateError error
	GetError    error

	// SuppressKeyLookups makes GetByIdempotencyKey report a miss for the
	// next N calls, simulating the window where a concurrent writer has
	// inserted but this writer has not yet observed it.
	SuppressKeyLookups int32
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
		byKey:    make(map[string]string),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	m.byKey[payment.IdempotencyKey] = payment.ID
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// GetPayment returns a payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byKey[payment.IdempotencyKey]; exists {
		return repository.ErrDuplicateKey
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	m.byKey[payment.IdempotencyKey] = payment.ID
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	if atomic.LoadInt32(&m.SuppressKeyLookups) > 0 {
		atomic.AddInt32(&m.SuppressKeyLookups, -1)
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	copy := *m.payments[id]
	return &copy, nil
}

func (m *MockPaymentRepository) SetProcessorResult(ctx context.Context, id, processorRef string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.ProcessorRef = processorRef
	payment.Status = status
	return nil
}

func (m *MockPaymentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	atomic.AddInt32(&m.UpdateStatusFromCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok || payment.Status != from {
		return false, nil
	}
	payment.Status = to
	return true, nil
}

func (m *MockPaymentRepository) ListByStatuses(ctx context.Context, statuses []domain.PaymentStatus, limit int) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0)
	for _, p := range m.payments {
		for _, s := range statuses {
			if p.Status == s {
				copy := *p
				result = append(result, &copy)
				break
			}
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockPaymentRepository) List(ctx context.Context, offset, limit int) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		copy := *p
		result = append(result, &copy)
	}
	// Newest first, as the SQL implementation orders it.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if offset >= len(result) {
		return []*domain.Payment{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *MockPaymentRepository) snapshot() (map[string]*domain.Payment, map[string]string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payments := make(map[string]*domain.Payment, len(m.payments))
	for id, p := range m.payments {
		copy := *p
		payments[id] = &copy
	}
	byKey := make(map[string]string, len(m.byKey))
	for k, v := range m.byKey {
		byKey[k] = v
	}
	return payments, byKey
}

func (m *MockPaymentRepository) restore(payments map[string]*domain.Payment, byKey map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = payments
	m.byKey = byKey
}

// ──────────────────────────────────────────────
// MOCK CARD REPOSITORY
// ──────────────────────────────────────────────

// MockCardRepository is a mock implementation of CardRepository.
type MockCardRepository struct {
	mu    sync.RWMutex
	cards map[string]*domain.Card

	// Counters for verification
	CreateCallCount       int32
	RemoveCallCount       int32
	ClearDefaultCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockCardRepository creates a new mock card repository.
func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{cards: make(map[string]*domain.Card)}
}

// AddCard adds a card to the mock repository.
func (m *MockCardRepository) AddCard(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
}

// GetCard returns a card for test assertions.
func (m *MockCardRepository) GetCard(id string) *domain.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cards[id]
}

func (m *MockCardRepository) Create(ctx context.Context, card *domain.Card) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *card
	m.cards[card.ID] = &copy
	return nil
}

func (m *MockCardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *card
	return &copy, nil
}

func (m *MockCardRepository) GetByOwner(ctx context.Context, owner string) ([]*domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Card, 0)
	for _, c := range m.cards {
		if c.OwnerExternalID == owner && !c.Removed {
			copy := *c
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockCardRepository) Update(ctx context.Context, id string, patch repository.CardPatch) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Billing != nil {
		card.Billing = *patch.Billing
	}
	if patch.Default != nil {
		card.Default = *patch.Default
	}
	return nil
}

func (m *MockCardRepository) ClearDefault(ctx context.Context, owner string) error {
	atomic.AddInt32(&m.ClearDefaultCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.OwnerExternalID == owner {
			c.Default = false
		}
	}
	return nil
}

func (m *MockCardRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.CardStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok || card.Status != from {
		return false, nil
	}
	card.Status = to
	return true, nil
}

func (m *MockCardRepository) Remove(ctx context.Context, id string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return repository.ErrNotFound
	}
	card.Removed = true
	card.Default = false
	return nil
}

// ──────────────────────────────────────────────
// MOCK BANK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockBankAccountRepository is a mock implementation of BankAccountRepository.
type MockBankAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.BankAccount

	CreateCallCount int32
	CreateError     error
}

// NewMockBankAccountRepository creates a new mock bank account repository.
func NewMockBankAccountRepository() *MockBankAccountRepository {
	return &MockBankAccountRepository{accounts: make(map[string]*domain.BankAccount)}
}

// AddAccount adds a bank account to the mock repository.
func (m *MockBankAccountRepository) AddAccount(account *domain.BankAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

// GetAccount returns a bank account for test assertions.
func (m *MockBankAccountRepository) GetAccount(id string) *domain.BankAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[id]
}

func (m *MockBankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *account
	m.accounts[account.ID] = &copy
	return nil
}

func (m *MockBankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

func (m *MockBankAccountRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.BankAccountStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok || account.Status != from {
		return false, nil
	}
	account.Status = to
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner hands the shared mocks to the callback and emulates rollback
// by restoring a snapshot of the payment store when the callback fails.
type MockTxRunner struct {
	Payments     *MockPaymentRepository
	Cards        *MockCardRepository
	BankAccounts *MockBankAccountRepository

	WithinTxCallCount int32
}

// NewMockTxRunner creates a MockTxRunner over the given mocks.
func NewMockTxRunner(payments *MockPaymentRepository, cards *MockCardRepository, accounts *MockBankAccountRepository) *MockTxRunner {
	return &MockTxRunner{Payments: payments, Cards: cards, BankAccounts: accounts}
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos service.TxRepos) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)

	var payments map[string]*domain.Payment
	var byKey map[string]string
	if m.Payments != nil {
		payments, byKey = m.Payments.snapshot()
	}

	err := fn(ctx, service.TxRepos{
		Payments:     m.Payments,
		Cards:        m.Cards,
		BankAccounts: m.BankAccounts,
	})
	if err != nil && m.Payments != nil {
		m.Payments.restore(payments, byKey)
	}
	return err
}

// ──────────────────────────────────────────────
// MOCK PROCESSOR GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock implementation of processor.Gateway with per-method
// result and error injection.
type MockGateway struct {
	CardResult        *processor.CardResult
	CardError         error
	CardStatusResult  domain.CardStatus
	CardStatusError   error
	RemoveCardError   error
	AccountResult     *processor.BankAccountResult
	AccountError      error
	AccountStatus     domain.BankAccountStatus
	AccountStatusErr  error
	Instructions      *domain.WireInstructions
	InstructionsError error
	ChargeResult      *processor.ChargeResult
	ChargeError       error
	ChargeStatusResult domain.PaymentStatus
	ChargeStatusError error
	Key               *domain.PublicKey
	KeyError          error

	CreateCardCallCount   int32
	RemoveCardCallCount   int32
	CreateChargeCallCount int32
	ChargeStatusCallCount int32
	PublicKeyCallCount    int32
}

func (m *MockGateway) CreateCard(ctx context.Context, req processor.CreateCardRequest) (*processor.CardResult, error) {
	atomic.AddInt32(&m.CreateCardCallCount, 1)
	if m.CardError != nil {
		return nil, m.CardError
	}
	if m.CardResult != nil {
		return m.CardResult, nil
	}
	return &processor.CardResult{Token: "tok_" + req.OwnerExternalID, Status: domain.CardStatusPending}, nil
}

func (m *MockGateway) CardStatus(ctx context.Context, token string) (domain.CardStatus, error) {
	if m.CardStatusError != nil {
		return "", m.CardStatusError
	}
	if m.CardStatusResult != "" {
		return m.CardStatusResult, nil
	}
	return domain.CardStatusPending, nil
}

func (m *MockGateway) RemoveCard(ctx context.Context, token string) error {
	atomic.AddInt32(&m.RemoveCardCallCount, 1)
	return m.RemoveCardError
}

func (m *MockGateway) CreateBankAccount(ctx context.Context, req processor.CreateBankAccountRequest) (*processor.BankAccountResult, error) {
	if m.AccountError != nil {
		return nil, m.AccountError
	}
	if m.AccountResult != nil {
		return m.AccountResult, nil
	}
	return &processor.BankAccountResult{Token: "bank_" + req.OwnerExternalID, Status: domain.BankAccountStatusPending}, nil
}

func (m *MockGateway) BankAccountStatus(ctx context.Context, token string) (domain.BankAccountStatus, error) {
	if m.AccountStatusErr != nil {
		return "", m.AccountStatusErr
	}
	if m.AccountStatus != "" {
		return m.AccountStatus, nil
	}
	return domain.BankAccountStatusPending, nil
}

func (m *MockGateway) WireInstructions(ctx context.Context, token string) (*domain.WireInstructions, error) {
	if m.InstructionsError != nil {
		return nil, m.InstructionsError
	}
	if m.Instructions != nil {
		return m.Instructions, nil
	}
	return &domain.WireInstructions{TrackingRef: "TR0001", AccountNumber: "123456789"}, nil
}

func (m *MockGateway) CreateCharge(ctx context.Context, req processor.ChargeRequest) (*processor.ChargeResult, error) {
	atomic.AddInt32(&m.CreateChargeCallCount, 1)
	if m.ChargeError != nil {
		return nil, m.ChargeError
	}
	if m.ChargeResult != nil {
		return m.ChargeResult, nil
	}
	return &processor.ChargeResult{Ref: "charge_" + req.IdempotencyKey, Status: domain.PaymentStatusProcessing}, nil
}

func (m *MockGateway) ChargeStatus(ctx context.Context, ref string) (domain.PaymentStatus, error) {
	atomic.AddInt32(&m.ChargeStatusCallCount, 1)
	if m.ChargeStatusError != nil {
		return "", m.ChargeStatusError
	}
	if m.ChargeStatusResult != "" {
		return m.ChargeStatusResult, nil
	}
	return domain.PaymentStatusProcessing, nil
}

func (m *MockGateway) PublicKey(ctx context.Context) (*domain.PublicKey, error) {
	atomic.AddInt32(&m.PublicKeyCallCount, 1)
	if m.KeyError != nil {
		return nil, m.KeyError
	}
	if m.Key != nil {
		return m.Key, nil
	}
	return &domain.PublicKey{KeyID: "key-1", PublicKey: "pem"}, nil
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER AND KEY CACHE
// ──────────────────────────────────────────────

// MockPublisher records published status-change events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []domain.Payment

	PublishError error
}

func (m *MockPublisher) PaymentStatusChanged(ctx context.Context, payment *domain.Payment) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, *payment)
	return nil
}

// EventCount returns the number of published events.
func (m *MockPublisher) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// MockKeyCache is an in-memory PublicKeyCache.
type MockKeyCache struct {
	mu  sync.Mutex
	key *domain.PublicKey

	GetError error
	SetError error

	GetCallCount int32
	SetCallCount int32
}

func (m *MockKeyCache) Get(ctx context.Context) (*domain.PublicKey, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, nil
}

func (m *MockKeyCache) Set(ctx context.Context, key *domain.PublicKey) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	return nil
}

// Expire clears the cached key, simulating TTL expiry.
func (m *MockKeyCache) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = nil
}
