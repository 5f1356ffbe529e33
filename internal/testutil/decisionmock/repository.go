package decisionmock

import (
	"context"

	domain "finapp-backend/internal/domain/decision"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn          func(ctx context.Context, d *domain.Decision) error
	GetByLoanIDFn     func(ctx context.Context, loanID string) (*domain.Decision, error)
	GetByDecisionIDFn func(ctx context.Context, decisionID string) (*domain.Decision, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.Decision) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Decision, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByDecisionID(ctx context.Context, decisionID string) (*domain.Decision, error) {
	if m.GetByDecisionIDFn != nil {
		return m.GetByDecisionIDFn(ctx, decisionID)
	}
	return nil, context.Canceled
}
