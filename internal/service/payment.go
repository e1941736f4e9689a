package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payments/internal/domain"
	"payments/internal/metrics"
	"payments/internal/processor"
	"payments/internal/repository"
)

// EventPublisher emits payment status-change events for downstream
// consumers.
type EventPublisher interface {
	PaymentStatusChanged(ctx context.Context, payment *domain.Payment) error
}

// PaymentService owns the payment state machine: creation, idempotency,
// transactional consistency with the processor gateway, and lookup.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	cardRepo    repository.CardRepository
	accountRepo repository.BankAccountRepository
	gateway     processor.Gateway
	reference   *ReferenceService
	txRunner    TxRunner
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService. publisher may be nil.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	cardRepo repository.CardRepository,
	accountRepo repository.BankAccountRepository,
	gateway processor.Gateway,
	reference *ReferenceService,
	txRunner TxRunner,
	publisher EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		gateway:     gateway,
		reference:   reference,
		txRunner:    txRunner,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreatePaymentRequest contains the parameters for creating a payment.
// Amount is a decimal string in display units ("12.34"); exactly one of
// CardID and BankAccountID must be set.
type CreatePaymentRequest struct {
	OwnerExternalID string
	Amount          string
	Currency        string
	CardID          string
	BankAccountID   string
	IdempotencyKey  string
}

// CreatePayment validates the request, persists a pending payment and issues
// the charge to the processor inside one transaction. A synchronous
// processor rejection rolls everything back and returns ErrPaymentRejected;
// a gateway timeout rolls back and is retryable with the same idempotency
// key. Duplicate submissions of the same key return the existing payment
// without issuing a second charge.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	if req.OwnerExternalID == "" {
		return nil, ErrInvalidOwnerID
	}
	if !s.reference.Supports(req.Currency) {
		return nil, ErrUnsupportedCurrency
	}

	amount, err := minorUnits(req.Amount, s.reference.GetCurrency(ctx).Exponent)
	if err != nil {
		return nil, err
	}

	token, err := s.resolveInstrument(ctx, req)
	if err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		// Deterministic fallback: retries of the same logical charge
		// collapse onto one payment even without a caller-supplied key.
		key = DeriveIdempotencyKey(req.OwnerExternalID, req.CardID+req.BankAccountID, amount, time.Now())
	}

	if existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:              uuid.New().String(),
		OwnerExternalID: req.OwnerExternalID,
		Amount:          amount,
		Currency:        req.Currency,
		CardID:          req.CardID,
		BankAccountID:   req.BankAccountID,
		Status:          domain.PaymentStatusPending,
		IdempotencyKey:  key,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		result, err := s.gateway.CreateCharge(ctx, processor.ChargeRequest{
			IdempotencyKey: key,
			Token:          token,
			Amount:         amount,
			Currency:       req.Currency,
		})
		if err != nil {
			if errors.Is(err, processor.ErrDeclined) {
				metrics.ProcessorErrors.WithLabelValues("declined").Inc()
				return ErrPaymentRejected
			}
			if errors.Is(err, processor.ErrTimeout) {
				metrics.ProcessorErrors.WithLabelValues("timeout").Inc()
			}
			return err
		}

		payment.ProcessorRef = result.Ref
		if payment.Status.CanTransitionTo(result.Status) {
			payment.Status = result.Status
		}
		return repos.Payments.SetProcessorResult(ctx, payment.ID, result.Ref, payment.Status)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost a concurrent race on the unique index: the winner's
			// payment is the payment.
			existing, lookupErr := s.paymentRepo.GetByIdempotencyKey(ctx, key)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	metrics.PaymentsCreated.Inc()
	s.publish(ctx, payment)

	return payment, nil
}

// GetPayment retrieves a payment by ID. It returns the last-known state;
// reconciliation with the processor is the Reconciler's concern.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}

// ListPayments retrieves a page of payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, page, pageSize int) ([]*domain.Payment, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	return s.paymentRepo.List(ctx, (page-1)*pageSize, pageSize)
}

func (s *PaymentService) resolveInstrument(ctx context.Context, req CreatePaymentRequest) (string, error) {
	if (req.CardID == "") == (req.BankAccountID == "") {
		return "", ErrInvalidInstrumentRef
	}

	if req.CardID != "" {
		card, err := s.cardRepo.GetByID(ctx, req.CardID)
		if err != nil {
			return "", err
		}
		if card.Removed {
			return "", repository.ErrNotFound
		}
		if card.OwnerExternalID != req.OwnerExternalID {
			return "", ErrInstrumentOwnerMismatch
		}
		return card.ProcessorToken, nil
	}

	account, err := s.accountRepo.GetByID(ctx, req.BankAccountID)
	if err != nil {
		return "", err
	}
	if account.OwnerExternalID != req.OwnerExternalID {
		return "", ErrInstrumentOwnerMismatch
	}
	return account.ProcessorToken, nil
}

func (s *PaymentService) publish(ctx context.Context, payment *domain.Payment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PaymentStatusChanged(ctx, payment); err != nil {
		s.logger.Warn("publish payment status event failed",
			zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

// idempotencyKeyWindow bounds the derived-key fallback. Identical requests
// inside one window collapse onto one payment; a later window yields a new
// key, so a repeat purchase of the same amount is charged again.
const idempotencyKeyWindow = time.Hour

// DeriveIdempotencyKey builds the fallback idempotency key for a payment
// request that carries none, from the owner, the instrument reference, the
// amount in minor units and the time window containing at.
func DeriveIdempotencyKey(ownerExternalID, instrumentID string, amount int64, at time.Time) string {
	window := at.UTC().Truncate(idempotencyKeyWindow).Unix()
	return fmt.Sprintf("payment:%s:%s:%d:%d", ownerExternalID, instrumentID, amount, window)
}

// minorUnits converts a decimal amount string into minor units of a
// currency with the given exponent. Rejects non-positive amounts and
// amounts with excess precision.
func minorUnits(amount string, exponent int) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	m := d.Shift(int32(exponent))
	if !m.IsInteger() || m.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}

	return m.IntPart(), nil
}
