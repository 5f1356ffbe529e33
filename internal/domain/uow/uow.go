package uow

import (
	"context"
	"errors"

	"finapp-backend/internal/domain/decision"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
)

// ErrTransactionConflict means a transaction lost a race on a loan row.
// The persistence boundary retries it a few times before surfacing it.
var ErrTransactionConflict = errors.New("transaction conflict, please retry")

// DefaultAttempts bounds the retries of a conflicting transaction.
const DefaultAttempts = 3

// domain/uow/uow.go
type Repos struct {
	Loans     loan.Repository
	Payments  payment.Repository
	Decisions decision.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}

// Retry runs fn up to attempts times while it fails with ErrTransactionConflict.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrTransactionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
