package payment

import (
	"time"

	"finapp-backend/internal/domain/payment"
	loanuc "finapp-backend/internal/usecase/loan"

	"github.com/shopspring/decimal"
)

type RecordInput struct {
	LoanID string
	Amount decimal.Decimal
	// Status defaults to SUCCESS. Only SUCCESS moves the loan balances.
	Status        payment.Status
	TransactionID string
	Method        string
}

type PaymentDTO struct {
	PaymentID     string       `json:"payment_id"`
	LoanID        string       `json:"loan_id"`
	UserID        string       `json:"user_id"`
	UserName      string       `json:"user_name"`
	Amount        loanuc.Money `json:"amount"`
	PaidAt        time.Time    `json:"paid_at"`
	Status        string       `json:"status"`
	TransactionID string       `json:"transaction_id"`
	Method        string       `json:"method"`
	DayNumber     int          `json:"day_number"`
	PeriodKey     string       `json:"period_key"`
}

type RecordResult struct {
	Payment *PaymentDTO `json:"payment"`
	// Requested is what the client asked to pay; Payment.Amount is what was applied.
	Requested loanuc.Money    `json:"requested"`
	Loan      *loanuc.LoanDTO `json:"loan"`
}

// StatusDTO answers "have I paid this period" for one loan.
type StatusDTO struct {
	LoanID          string       `json:"loan_id"`
	LoanStatus      string       `json:"loan_status"`
	PeriodKey       string       `json:"period_key"`
	PaidInPeriod    bool         `json:"paid_in_period"`
	DayOfPeriod     int          `json:"day_of_period"`
	DueDay          int          `json:"due_day"`
	Installment     loanuc.Money `json:"installment"`
	RemainingAmount loanuc.Money `json:"remaining_amount"`
	Today           *PaymentDTO  `json:"today,omitempty"`
}

func ToDTO(p *payment.Payment) *PaymentDTO {
	return &PaymentDTO{
		PaymentID:     p.PaymentID,
		LoanID:        p.LoanID,
		UserID:        p.UserID,
		UserName:      p.UserName,
		Amount:        loanuc.AsMoney(p.Amount),
		PaidAt:        p.PaidAt,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Method:        p.Method,
		DayNumber:     p.DayNumber,
		PeriodKey:     p.PeriodKey,
	}
}

func ToDTOs(ps []*payment.Payment) []*PaymentDTO {
	out := make([]*PaymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToDTO(p))
	}
	return out
}
