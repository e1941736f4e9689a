package domain

import "time"

// BankAccountStatus represents the verification status of a bank account.
type BankAccountStatus string

const (
	BankAccountStatusPending  BankAccountStatus = "PENDING"
	BankAccountStatusComplete BankAccountStatus = "COMPLETE"
	BankAccountStatusFailed   BankAccountStatus = "FAILED"
)

var bankAccountStatusRank = map[BankAccountStatus]int{
	BankAccountStatusPending:  0,
	BankAccountStatusComplete: 1,
	BankAccountStatusFailed:   1,
}

// CanTransitionTo reports whether a status refresh from s to next should be
// persisted.
func (s BankAccountStatus) CanTransitionTo(next BankAccountStatus) bool {
	return bankAccountStatusRank[next] > bankAccountStatusRank[s]
}

// FundingEligible reports whether wire-transfer instructions may be served
// for an account in this status.
func (s BankAccountStatus) FundingEligible() bool {
	return s == BankAccountStatusComplete
}

// BankAccount represents a tokenized bank account registered with the
// processor for wire-transfer funding.
type BankAccount struct {
	ID              string
	OwnerExternalID string
	ProcessorToken  string
	Status          BankAccountStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WireInstructions are the processor-generated routing details a payer uses
// to fund a bank account. Generated by the processor, never stored locally.
type WireInstructions struct {
	TrackingRef     string
	BeneficiaryName string
	BeneficiaryBank string
	BankAddress     string
	AccountNumber   string
	RoutingNumber   string
	SwiftCode       string
}
