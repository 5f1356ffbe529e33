package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusCompleted }

type Category string

const (
	CategoryEducation Category = "EDUCATION"
	CategoryPersonal  Category = "PERSONAL"
	CategoryHome      Category = "HOME"
	CategoryCar       Category = "CAR"
)

var defaultRates = map[Category]decimal.Decimal{
	CategoryEducation: decimal.RequireFromString("5.0"),
	CategoryPersonal:  decimal.RequireFromString("5.5"),
	CategoryHome:      decimal.RequireFromString("6.0"),
	CategoryCar:       decimal.RequireFromString("6.5"),
}

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryEducation, CategoryPersonal, CategoryHome, CategoryCar}
}

func (c Category) Valid() bool {
	_, ok := defaultRates[c]
	return ok
}

// DefaultRate is the annual rate percent offered for the category.
func (c Category) DefaultRate() decimal.Decimal { return defaultRates[c] }

func (c Category) DisplayName() string {
	switch c {
	case CategoryEducation:
		return "Education Loan"
	case CategoryPersonal:
		return "Personal Loan"
	case CategoryHome:
		return "Home Loan"
	case CategoryCar:
		return "Car Loan"
	}
	return string(c)
}

// Schedule is the immutable repayment summary computed at submission.
type Schedule struct {
	DurationUnit     DurationUnit    `gorm:"column:duration_unit;size:8" json:"duration_unit"`
	PeriodUnit       PeriodUnit      `gorm:"column:period_unit;size:8" json:"period_unit"`
	TotalInterest    decimal.Decimal `gorm:"column:total_interest;type:decimal(18,2)" json:"total_interest"`
	TotalPayable     decimal.Decimal `gorm:"column:total_payable;type:decimal(18,2)" json:"total_payable"`
	Installment      decimal.Decimal `gorm:"column:installment;type:decimal(18,2)" json:"installment"`
	FinalInstallment decimal.Decimal `gorm:"column:final_installment;type:decimal(18,2)" json:"final_installment"`
	InstallmentCount int             `gorm:"column:installment_count" json:"installment_count"`
	TermDays         int             `gorm:"column:term_days" json:"term_days"`
}

// Table: loans
type Loan struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID       string          `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	UserID       string          `gorm:"column:user_id;size:64;index:idx_loans_user_requested" json:"user_id"`
	UserName     string          `gorm:"column:user_name;size:128" json:"user_name"`
	PhoneNumber  string          `gorm:"column:phone_number;size:32" json:"phone_number"`
	Category     Category        `gorm:"column:category;size:16" json:"category"`
	Principal    decimal.Decimal `gorm:"column:principal;type:decimal(18,2)" json:"principal"`
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,2)" json:"interest_rate"`
	Duration     int             `gorm:"column:duration" json:"duration"`
	Schedule     Schedule        `gorm:"embedded" json:"schedule"`

	Status          Status          `gorm:"column:status;size:16;index:idx_loans_status" json:"status"`
	RequestedAt     time.Time       `gorm:"column:requested_at;index:idx_loans_user_requested" json:"requested_at"`
	ApprovedAt      *time.Time      `gorm:"column:approved_at" json:"approved_at,omitempty"`
	StartDate       *time.Time      `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate         *time.Time      `gorm:"column:end_date" json:"end_date,omitempty"`
	PaidAmount      decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2)" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"column:remaining_amount;type:decimal(18,2)" json:"remaining_amount"`

	// Version is bumped on every save; a stale version means a lost race.
	Version        uint64    `gorm:"column:version;not null;default:0" json:"-"`
	StateUpdatedAt time.Time `gorm:"column:state_updated_at" json:"state_updated_at"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }
