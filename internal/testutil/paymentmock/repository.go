package paymentmock

import (
	"context"
	"time"

	domain "finapp-backend/internal/domain/payment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, p *domain.Payment) error
	GetByPaymentIDFn        func(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListByLoanIDFn          func(ctx context.Context, loanID string) ([]*domain.Payment, error)
	ListByUserIDFn          func(ctx context.Context, userID string) ([]*domain.Payment, error)
	ListSuccessBetweenFn    func(ctx context.Context, from, to time.Time) ([]*domain.Payment, error)
	ExistsSuccessInPeriodFn func(ctx context.Context, loanID, periodKey string) (bool, error)
	FirstForLoanBetweenFn   func(ctx context.Context, loanID string, from, to time.Time) (*domain.Payment, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.GetByPaymentIDFn != nil {
		return m.GetByPaymentIDFn(ctx, paymentID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	if m.ListByUserIDFn != nil {
		return m.ListByUserIDFn(ctx, userID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListSuccessBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	if m.ListSuccessBetweenFn != nil {
		return m.ListSuccessBetweenFn(ctx, from, to)
	}
	return nil, context.Canceled
}

func (m *Repo) ExistsSuccessInPeriod(ctx context.Context, loanID, periodKey string) (bool, error) {
	if m.ExistsSuccessInPeriodFn != nil {
		return m.ExistsSuccessInPeriodFn(ctx, loanID, periodKey)
	}
	return false, nil
}

func (m *Repo) FirstForLoanBetween(ctx context.Context, loanID string, from, to time.Time) (*domain.Payment, error) {
	if m.FirstForLoanBetweenFn != nil {
		return m.FirstForLoanBetweenFn(ctx, loanID, from, to)
	}
	return nil, context.Canceled
}
