package service

import "errors"

var (
	// ErrInvalidOwnerID is returned when the owner external id is empty.
	ErrInvalidOwnerID = errors.New("invalid owner external id")

	// ErrInvalidAmount is returned when the amount is missing, malformed,
	// not positive, or has more precision than the currency allows.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnsupportedCurrency is returned when the requested currency is not
	// the configured one.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidInstrumentRef is returned when a payment names no
	// instrument, or both a card and a bank account.
	ErrInvalidInstrumentRef = errors.New("exactly one instrument reference required")

	// ErrInstrumentOwnerMismatch is returned when the referenced instrument
	// belongs to a different owner.
	ErrInstrumentOwnerMismatch = errors.New("instrument does not belong to owner")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidCardID is returned when card ID is empty.
	ErrInvalidCardID = errors.New("invalid card id")

	// ErrInvalidBankAccountID is returned when bank account ID is empty.
	ErrInvalidBankAccountID = errors.New("invalid bank account id")

	// ErrInvalidEncryptedData is returned when the encrypted instrument
	// payload or key id is missing.
	ErrInvalidEncryptedData = errors.New("invalid encrypted instrument data")

	// ErrEmptyPatch is returned when a card update carries no fields.
	ErrEmptyPatch = errors.New("update patch is empty")

	// ErrPaymentRejected is returned when the processor synchronously
	// rejects a charge. The payment is not persisted.
	ErrPaymentRejected = errors.New("payment rejected by processor")

	// ErrInstructionsNotReady is returned when wire-transfer instructions
	// are requested before the bank account is funding-eligible.
	ErrInstructionsNotReady = errors.New("bank account not ready for funding instructions")
)
