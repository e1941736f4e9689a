package processor

import (
	"context"
	"errors"

	"payments/internal/domain"
)

var (
	// ErrDeclined is returned when the processor explicitly rejects an
	// instrument or a charge. Not retryable.
	ErrDeclined = errors.New("processor declined request")

	// ErrTimeout is returned when the processor did not answer within the
	// request deadline. Safe to retry with the same idempotency key.
	ErrTimeout = errors.New("processor request timed out")

	// ErrNotFound is returned when the processor does not know the
	// referenced token.
	ErrNotFound = errors.New("processor token not found")
)

// CreateCardRequest carries the client-side-encrypted card data forwarded to
// the processor for tokenization. The raw card number never appears here.
type CreateCardRequest struct {
	OwnerExternalID string
	KeyID           string
	EncryptedData   string
	Billing         domain.BillingDetails
}

// CardResult is the processor's answer to a tokenization request.
type CardResult struct {
	Token  string
	Status domain.CardStatus
}

// CreateBankAccountRequest carries encrypted bank account details.
type CreateBankAccountRequest struct {
	OwnerExternalID string
	KeyID           string
	EncryptedData   string
}

// BankAccountResult is the processor's answer to a bank account creation.
type BankAccountResult struct {
	Token  string
	Status domain.BankAccountStatus
}

// ChargeRequest asks the processor to move funds from an instrument.
type ChargeRequest struct {
	IdempotencyKey string
	Token          string
	Amount         int64
	Currency       string
}

// ChargeResult is the processor's synchronous answer to a charge request.
// Settlement is usually asynchronous; Status reflects acceptance, and the
// reference is polled later for the final outcome.
type ChargeResult struct {
	Ref    string
	Status domain.PaymentStatus
}

// Gateway is the third-party rail that actually moves money and verifies
// instruments. It owns ground-truth verification and settlement state; this
// service reconciles against it, never the reverse. Implementations must
// translate raw processor failures into the sentinel errors above.
type Gateway interface {
	CreateCard(ctx context.Context, req CreateCardRequest) (*CardResult, error)
	CardStatus(ctx context.Context, token string) (domain.CardStatus, error)
	RemoveCard(ctx context.Context, token string) error

	CreateBankAccount(ctx context.Context, req CreateBankAccountRequest) (*BankAccountResult, error)
	BankAccountStatus(ctx context.Context, token string) (domain.BankAccountStatus, error)
	WireInstructions(ctx context.Context, token string) (*domain.WireInstructions, error)

	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	ChargeStatus(ctx context.Context, ref string) (domain.PaymentStatus, error)

	PublicKey(ctx context.Context) (*domain.PublicKey, error)
}
