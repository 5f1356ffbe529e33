package decision

import "context"

type Repository interface {
	// Create a new decision (DB uniqueness ensures at most one per loan)
	Create(ctx context.Context, d *Decision) error

	GetByLoanID(ctx context.Context, loanID string) (*Decision, error)

	// Get by public decision_id
	GetByDecisionID(ctx context.Context, decisionID string) (*Decision, error)
}
