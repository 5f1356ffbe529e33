package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/uow"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return mapTxErr(r.db.WithContext(ctx).Create(l).Error)
}

// Save writes every column of l guarded by its version. A row that moved on
// since l was read yields ErrTransactionConflict and leaves l.Version as it was.
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	prev := l.Version
	l.Version = prev + 1

	res := r.db.WithContext(ctx).
		Model(l).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		l.Version = prev
		return mapTxErr(res.Error)
	}
	if res.RowsAffected == 0 {
		l.Version = prev
		return fmt.Errorf("%w: loan %s changed since it was read", uow.ErrTransactionConflict, l.LoanID)
	}
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByLoanIDForUpdate takes a row lock (SELECT ... FOR UPDATE) on MySQL.
// SQLite has no row locks and relies on the version guard alone.
func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	if err != nil {
		return nil, mapTxErr(err)
	}
	return &out, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID string) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status loanDomain.Status) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("requested_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListAll(ctx context.Context) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	err := r.db.WithContext(ctx).Order("requested_at DESC, id DESC").Find(&out).Error
	return out, err
}
