package service

import (
	"context"

	"payments/internal/repository"
)

// TxRepos bundles transaction-scoped repositories handed to a WithinTx
// callback.
type TxRepos struct {
	Payments     repository.PaymentRepository
	Cards        repository.CardRepository
	BankAccounts repository.BankAccountRepository
}

// TxRunner runs a function inside an atomic transaction boundary. If fn
// returns an error the transaction is rolled back and no partial state
// survives. Injected as a capability so services stay independent of the
// storage engine.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}
