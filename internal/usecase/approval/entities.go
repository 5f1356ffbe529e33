package approval

import (
	"time"

	loanuc "finapp-backend/internal/usecase/loan"
)

type DecisionDTO struct {
	DecisionID string          `json:"decision_id"`
	LoanID     string          `json:"loan_id"`
	AdminID    string          `json:"admin_id"`
	Outcome    string          `json:"outcome"`
	DecidedAt  time.Time       `json:"decided_at"`
	Loan       *loanuc.LoanDTO `json:"loan"`
}
