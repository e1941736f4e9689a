package domain

import "time"

// CardStatus represents the verification status of a card at the processor.
type CardStatus string

const (
	CardStatusPending  CardStatus = "PENDING"
	CardStatusVerified CardStatus = "VERIFIED"
	CardStatusFailed   CardStatus = "FAILED"
)

var cardStatusRank = map[CardStatus]int{
	CardStatusPending:  0,
	CardStatusVerified: 1,
	CardStatusFailed:   1,
}

// CanTransitionTo reports whether a status refresh from s to next should be
// persisted. Verified and failed are terminal.
func (s CardStatus) CanTransitionTo(next CardStatus) bool {
	return cardStatusRank[next] > cardStatusRank[s]
}

// BillingDetails holds the mutable billing metadata attached to a card.
// The card number itself never reaches this system; only the processor
// token is stored.
type BillingDetails struct {
	Name       string
	Address1   string
	Address2   string
	City       string
	District   string
	Country    string
	PostalCode string
}

// Card represents a tokenized payment card registered with the processor.
type Card struct {
	ID              string
	OwnerExternalID string
	ProcessorToken  string
	Status          CardStatus
	Default         bool
	Billing         BillingDetails
	Removed         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
