package loan

import (
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"

	"github.com/shopspring/decimal"
)

type QuoteInput struct {
	Category  loan.Category
	Principal decimal.Decimal
	// Rate is the annual percent; nil uses the category default.
	Rate     *decimal.Decimal
	Duration int
}

type CreateLoanInput struct {
	QuoteInput
	// UserName and PhoneNumber override the stored profile when set.
	UserName    string
	PhoneNumber string
}

// ListFilter narrows List; an empty Status returns every status.
type ListFilter struct {
	Status loan.Status
}

// Money is rendered with exactly two decimals.
type Money string

func AsMoney(d decimal.Decimal) Money { return Money(d.StringFixed(2)) }

type QuoteDTO struct {
	Category         string `json:"category"`
	Principal        Money  `json:"principal"`
	InterestRate     Money  `json:"interest_rate"`
	Duration         int    `json:"duration"`
	DurationUnit     string `json:"duration_unit"`
	PeriodUnit       string `json:"period_unit"`
	TotalInterest    Money  `json:"total_interest"`
	TotalPayable     Money  `json:"total_payable"`
	Installment      Money  `json:"installment"`
	FinalInstallment Money  `json:"final_installment"`
	InstallmentCount int    `json:"installment_count"`
	TermDays         int    `json:"term_days"`
}

type LoanDTO struct {
	LoanID           string     `json:"loan_id"`
	UserID           string     `json:"user_id"`
	UserName         string     `json:"user_name"`
	PhoneNumber      string     `json:"phone_number,omitempty"`
	Category         string     `json:"category"`
	CategoryName     string     `json:"category_name"`
	Principal        Money      `json:"principal"`
	InterestRate     Money      `json:"interest_rate"`
	Duration         int        `json:"duration"`
	DurationUnit     string     `json:"duration_unit"`
	PeriodUnit       string     `json:"period_unit"`
	TotalInterest    Money      `json:"total_interest"`
	TotalPayable     Money      `json:"total_payable"`
	Installment      Money      `json:"installment"`
	InstallmentCount int        `json:"installment_count"`
	Status           string     `json:"status"`
	RequestedAt      time.Time  `json:"requested_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	PaidAmount       Money      `json:"paid_amount"`
	RemainingAmount  Money      `json:"remaining_amount"`
}

// ToDTO is shared by the approval and payment use cases.
func ToDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.LoanID,
		UserID:           l.UserID,
		UserName:         l.UserName,
		PhoneNumber:      l.PhoneNumber,
		Category:         string(l.Category),
		CategoryName:     l.Category.DisplayName(),
		Principal:        AsMoney(l.Principal),
		InterestRate:     AsMoney(l.InterestRate),
		Duration:         l.Duration,
		DurationUnit:     string(l.Schedule.DurationUnit),
		PeriodUnit:       string(l.Schedule.PeriodUnit),
		TotalInterest:    AsMoney(l.Schedule.TotalInterest),
		TotalPayable:     AsMoney(l.Schedule.TotalPayable),
		Installment:      AsMoney(l.Schedule.Installment),
		InstallmentCount: l.Schedule.InstallmentCount,
		Status:           string(l.Status),
		RequestedAt:      l.RequestedAt,
		ApprovedAt:       l.ApprovedAt,
		StartDate:        l.StartDate,
		EndDate:          l.EndDate,
		PaidAmount:       AsMoney(l.PaidAmount),
		RemainingAmount:  AsMoney(l.RemainingAmount),
	}
}

// NotifyInfo extracts what notification texts need from a loan.
func NotifyInfo(l *loan.Loan, dueDay int) notify.LoanInfo {
	return notify.LoanInfo{
		LoanID:      l.LoanID,
		OwnerID:     l.UserID,
		OwnerName:   l.UserName,
		Category:    l.Category.DisplayName(),
		Principal:   l.Principal,
		Installment: l.Schedule.Installment,
		DueDay:      dueDay,
	}
}
