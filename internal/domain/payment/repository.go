package payment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)

	// Newest first.
	ListByLoanID(ctx context.Context, loanID string) ([]*Payment, error)
	ListByUserID(ctx context.Context, userID string) ([]*Payment, error)
	// SUCCESS payments with paid_at in [from, to], newest first.
	ListSuccessBetween(ctx context.Context, from, to time.Time) ([]*Payment, error)

	ExistsSuccessInPeriod(ctx context.Context, loanID, periodKey string) (bool, error)
	// Latest payment for the loan with paid_at in [from, to]; ErrRecordNotFound style miss.
	FirstForLoanBetween(ctx context.Context, loanID string, from, to time.Time) (*Payment, error)
}
