package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// paymentStatusRank orders payment statuses so that reconciliation events can
// only move a payment forward. Completed and failed share the top rank: both
// are terminal and neither can replace the other.
var paymentStatusRank = map[PaymentStatus]int{
	PaymentStatusPending:    0,
	PaymentStatusProcessing: 1,
	PaymentStatusCompleted:  2,
	PaymentStatusFailed:     2,
}

// IsTerminal reports whether the status permits no further transitions.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// CanTransitionTo reports whether a transition from s to next is permitted.
// Transitions are monotonic: a reconciliation event carrying an equal or
// older status than the one already persisted is discarded, not applied.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return paymentStatusRank[next] > paymentStatusRank[s]
}

// Payment represents a money-movement request funded by a registered
// instrument. Payments are financial records and are never hard-deleted.
type Payment struct {
	ID              string
	OwnerExternalID string
	Amount          int64 // minor units of Currency
	Currency        string
	CardID          string
	BankAccountID   string
	Status          PaymentStatus
	IdempotencyKey  string
	ProcessorRef    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
