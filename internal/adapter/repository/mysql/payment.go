package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	paymentDomain "finapp-backend/internal/domain/payment"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.Payment) error {
	p.PaidAt = p.PaidAt.UTC()
	return mapTxErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]*paymentDomain.Payment, error) {
	var out []*paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("paid_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListByUserID(ctx context.Context, userID string) ([]*paymentDomain.Payment, error) {
	var out []*paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("paid_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// Times are stored in UTC, so bounds are normalised before comparing.
func (r *PaymentRepository) ListSuccessBetween(ctx context.Context, from, to time.Time) ([]*paymentDomain.Payment, error) {
	var out []*paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND paid_at >= ? AND paid_at <= ?", paymentDomain.StatusSuccess, from.UTC(), to.UTC()).
		Order("paid_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ExistsSuccessInPeriod(ctx context.Context, loanID, periodKey string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&paymentDomain.Payment{}).
		Where("loan_id = ? AND period_key = ? AND status = ?", loanID, periodKey, paymentDomain.StatusSuccess).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) FirstForLoanBetween(ctx context.Context, loanID string, from, to time.Time) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND paid_at >= ? AND paid_at <= ?", loanID, from.UTC(), to.UTC()).
		Order("paid_at DESC, id DESC").
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
