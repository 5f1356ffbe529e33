package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	// Save persists l if its version is still current and bumps the version.
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Row-locking read; only meaningful inside a unit of work.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)

	ListByUser(ctx context.Context, userID string) ([]*Loan, error)
	ListByStatus(ctx context.Context, status Status) ([]*Loan, error)
	ListAll(ctx context.Context) ([]*Loan, error)
}
