package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("payment not found")

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusPending Status = "PENDING"
	StatusFailed  Status = "FAILED"
)

func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusPending || s == StatusFailed
}

const MethodUPI = "UPI"

// Table: payments (append-only)
type Payment struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID     string          `gorm:"column:payment_id;size:32;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	LoanID        string          `gorm:"column:loan_id;size:32;index:idx_payments_loan_period" json:"loan_id"`
	UserID        string          `gorm:"column:user_id;size:64;index:idx_payments_user" json:"user_id"`
	UserName      string          `gorm:"column:user_name;size:128" json:"user_name"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	PaidAt        time.Time       `gorm:"column:paid_at;index:idx_payments_paid_at" json:"paid_at"`
	Status        Status          `gorm:"column:status;size:16" json:"status"`
	TransactionID string          `gorm:"column:transaction_id;size:64" json:"transaction_id"`
	Method        string          `gorm:"column:method;size:16" json:"method"`
	DayNumber     int             `gorm:"column:day_number" json:"day_number"`
	PeriodKey     string          `gorm:"column:period_key;size:10;index:idx_payments_loan_period" json:"period_key"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
