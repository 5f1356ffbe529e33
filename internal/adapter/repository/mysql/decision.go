package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	decisionDomain "finapp-backend/internal/domain/decision"
)

type DecisionRepository struct{ db *gorm.DB }

func NewDecisionRepository(db *gorm.DB) *DecisionRepository { return &DecisionRepository{db: db} }

// Create relies on the unique loan_id index to keep one decision per loan.
func (r *DecisionRepository) Create(ctx context.Context, d *decisionDomain.Decision) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return decisionDomain.ErrAlreadyDecided
	}
	return mapTxErr(err)
}

func (r *DecisionRepository) GetByLoanID(ctx context.Context, loanID string) (*decisionDomain.Decision, error) {
	var out decisionDomain.Decision
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DecisionRepository) GetByDecisionID(ctx context.Context, decisionID string) (*decisionDomain.Decision, error) {
	var out decisionDomain.Decision
	if err := r.db.WithContext(ctx).Where("decision_id = ?", decisionID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
