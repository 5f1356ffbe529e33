package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func pendingLoan(t *testing.T) *Loan {
	t.Helper()
	s, err := DefaultPolicy().Compute(dec("100000"), dec("6.88"), 12)
	require.NoError(t, err)
	return &Loan{
		LoanID:       "0123456789abcdef0123456789abcdef",
		UserID:       "u-1",
		Category:     CategoryPersonal,
		Principal:    dec("100000"),
		InterestRate: dec("6.88"),
		Duration:     12,
		Schedule:     s,
		Status:       StatusPending,
		RequestedAt:  t0.Add(-time.Hour),
	}
}

func TestApprove_SetsDatesAndBalances(t *testing.T) {
	l := pendingLoan(t)
	require.NoError(t, l.Approve(t0))

	assert.Equal(t, StatusApproved, l.Status)
	require.NotNil(t, l.ApprovedAt)
	require.NotNil(t, l.StartDate)
	require.NotNil(t, l.EndDate)
	assert.Equal(t, t0, *l.StartDate)
	assert.Equal(t, t0.AddDate(0, 0, 360), *l.EndDate)
	assert.Equal(t, "106880", l.RemainingAmount.String())
	assert.True(t, l.PaidAmount.IsZero())
}

func TestLedger_ReferencePaymentScenario(t *testing.T) {
	l := pendingLoan(t)
	require.NoError(t, l.Approve(t0))

	applied, err := l.ApplyPayment(dec("8906.67"), t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "8906.67", applied.String())
	assert.Equal(t, "8906.67", l.PaidAmount.String())
	assert.Equal(t, "97973.33", l.RemainingAmount.String())
	assert.Equal(t, StatusApproved, l.Status)

	for i := 2; l.Status == StatusApproved; i++ {
		_, err := l.ApplyPayment(l.Schedule.Installment, t0.AddDate(0, i, 0))
		require.NoError(t, err)
		assert.True(t, l.PaidAmount.Add(l.RemainingAmount).Equal(l.Schedule.TotalPayable))
		require.LessOrEqual(t, i, 12)
	}
	assert.Equal(t, StatusCompleted, l.Status)
	assert.True(t, l.RemainingAmount.IsZero())
	assert.True(t, l.PaidAmount.Equal(l.Schedule.TotalPayable))
}

func TestApplyPayment_CapsOverpayment(t *testing.T) {
	l := pendingLoan(t)
	require.NoError(t, l.Approve(t0))

	applied, err := l.ApplyPayment(dec("200000"), t0)
	require.NoError(t, err)
	assert.Equal(t, "106880", applied.String())
	assert.Equal(t, StatusCompleted, l.Status)
	assert.True(t, l.RemainingAmount.IsZero())
}

func TestApplyPayment_Rejections(t *testing.T) {
	l := pendingLoan(t)
	_, err := l.ApplyPayment(dec("10"), t0)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, l.Approve(t0))
	_, err = l.ApplyPayment(decimal.Zero, t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.ApplyPayment(dec("-5"), t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, l.PaidAmount.IsZero())
}

func TestReject_Twice(t *testing.T) {
	l := pendingLoan(t)
	require.NoError(t, l.Reject(t0))
	err := l.Reject(t0.Add(time.Minute))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	assert.Equal(t, StatusRejected, l.Status)
	assert.Equal(t, t0, l.StateUpdatedAt)
}

func TestTransitions_OnlyForward(t *testing.T) {
	type op func(l *Loan) error
	approve := func(l *Loan) error { return l.Approve(t0) }
	reject := func(l *Loan) error { return l.Reject(t0) }
	pay := func(l *Loan) error { _, err := l.ApplyPayment(dec("1"), t0); return err }

	tests := []struct {
		name string
		from Status
		do   op
		want error
	}{
		{"approve approved", StatusApproved, approve, ErrInvalidTransition},
		{"approve rejected", StatusRejected, approve, ErrInvalidTransition},
		{"approve completed", StatusCompleted, approve, ErrInvalidTransition},
		{"reject approved", StatusApproved, reject, ErrInvalidTransition},
		{"reject completed", StatusCompleted, reject, ErrInvalidTransition},
		{"pay pending", StatusPending, pay, ErrInvalidState},
		{"pay rejected", StatusRejected, pay, ErrInvalidState},
		{"pay completed", StatusCompleted, pay, ErrInvalidState},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := pendingLoan(t)
			l.Status = tc.from
			err := tc.do(l)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.from, l.Status)
		})
	}
}

func TestDayNumber(t *testing.T) {
	l := pendingLoan(t)
	assert.Equal(t, 1, l.DayNumber(t0))

	require.NoError(t, l.Approve(t0))
	assert.Equal(t, 1, l.DayNumber(t0))
	assert.Equal(t, 1, l.DayNumber(t0.Add(23*time.Hour)))
	assert.Equal(t, 2, l.DayNumber(t0.Add(24*time.Hour)))
	assert.Equal(t, 31, l.DayNumber(t0.AddDate(0, 0, 30)))
	assert.Equal(t, 1, l.DayNumber(t0.Add(-time.Hour)))
}
