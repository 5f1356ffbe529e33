package decision

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("decision not found")
	ErrAlreadyDecided = errors.New("loan already has a decision")
)

type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

// Table: loan_decisions
// One admin decision per loan; the unique index on loan_id enforces it.
type Decision struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	DecisionID string    `gorm:"column:decision_id;size:32;not null;uniqueIndex:ux_decisions_decision_id"`
	LoanID     string    `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_decisions_loan_id"`
	AdminID    string    `gorm:"column:admin_id;size:64;not null"`
	Outcome    Outcome   `gorm:"column:outcome;size:16;not null"`
	DecidedAt  time.Time `gorm:"column:decided_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Decision) TableName() string { return "loan_decisions" }
