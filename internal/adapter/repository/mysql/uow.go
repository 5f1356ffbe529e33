package mysql

import (
	"context"

	"gorm.io/gorm"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/uow"
)

type GormUoW struct {
	db       *gorm.DB
	attempts int
}

// NewGormUoW retries conflicting loan transactions up to attempts times
// (uow.DefaultAttempts when attempts < 1).
func NewGormUoW(db *gorm.DB, attempts int) *GormUoW {
	if attempts < 1 {
		attempts = uow.DefaultAttempts
	}
	return &GormUoW{db: db, attempts: attempts}
}

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: tx},
		Payments:  &PaymentRepository{db: tx},
		Decisions: &DecisionRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
	return mapTxErr(err)
}

// WithinLoanTx locks the loan row up-front and runs fn in one transaction.
// A conflict rolls back and reruns fn, so fn must not keep state between runs.
func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return uow.Retry(ctx, u.attempts, func() error {
		return u.WithinTx(ctx, func(r uow.Repos) error {
			l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(r, l)
		})
	})
}
