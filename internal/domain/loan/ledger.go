package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Approve activates a pending loan. Start is now, the end date is the term
// length in days later and the whole payable amount becomes outstanding.
func (l *Loan) Approve(now time.Time) error {
	if l.Status != StatusPending {
		return fmt.Errorf("%w: cannot approve %s loan", ErrInvalidTransition, l.Status)
	}
	start := now
	end := now.Add(time.Duration(l.Schedule.TermDays) * 24 * time.Hour)

	l.Status = StatusApproved
	l.ApprovedAt = &start
	l.StartDate = &start
	l.EndDate = &end
	l.PaidAmount = decimal.Zero
	l.RemainingAmount = l.Schedule.TotalPayable
	l.StateUpdatedAt = now
	return nil
}

func (l *Loan) Reject(now time.Time) error {
	if l.Status != StatusPending {
		return fmt.Errorf("%w: cannot reject %s loan", ErrInvalidTransition, l.Status)
	}
	l.Status = StatusRejected
	l.StateUpdatedAt = now
	return nil
}

// ApplyPayment books a successful payment against the balances and returns
// the amount actually applied. Anything above the outstanding balance is not
// applied, so paid+remaining always equals the total payable.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if l.Status != StatusApproved {
		return decimal.Zero, fmt.Errorf("%w: status is %s", ErrInvalidState, l.Status)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	applied := decimal.Min(amount, l.RemainingAmount)

	l.PaidAmount = l.PaidAmount.Add(applied)
	l.RemainingAmount = l.Schedule.TotalPayable.Sub(l.PaidAmount)
	if !l.RemainingAmount.IsPositive() {
		l.RemainingAmount = decimal.Zero
		l.Status = StatusCompleted
		l.StateUpdatedAt = now
	}
	return applied, nil
}

// DayNumber is the 1-based day of the loan at t.
func (l *Loan) DayNumber(t time.Time) int {
	if l.StartDate == nil || t.Before(*l.StartDate) {
		return 1
	}
	return int(t.Sub(*l.StartDate)/(24*time.Hour)) + 1
}
