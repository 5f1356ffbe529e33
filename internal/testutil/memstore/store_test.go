package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"finapp-backend/internal/domain/decision"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/uow"
)

func TestStore_CommitAndRollback(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, &loan.Loan{LoanID: "L1", Status: loan.StatusPending}); err != nil {
			return err
		}
		// visible inside the transaction
		_, err := r.Loans.GetByLoanID(ctx, "L1")
		return err
	})
	require.NoError(t, err)

	sentinel := errors.New("boom")
	err = s.WithinTx(ctx, func(r uow.Repos) error {
		_ = r.Loans.Create(ctx, &loan.Loan{LoanID: "L2"})
		_ = r.Payments.Create(ctx, &payment.Payment{PaymentID: "P1", LoanID: "L1"})
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = s.Repos().Loans.GetByLoanID(ctx, "L2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	ps, _ := s.Repos().Payments.ListByLoanID(ctx, "L1")
	assert.Empty(t, ps)
}

func TestStore_VersionGuard(t *testing.T) {
	s := New()
	ctx := context.Background()
	repos := s.Repos()
	require.NoError(t, repos.Loans.Create(ctx, &loan.Loan{LoanID: "L1", Status: loan.StatusPending}))

	a, _ := repos.Loans.GetByLoanID(ctx, "L1")
	b, _ := repos.Loans.GetByLoanID(ctx, "L1")
	require.NoError(t, a.Approve(time.Now()))
	require.NoError(t, repos.Loans.Save(ctx, a))
	assert.Equal(t, uint64(1), a.Version)

	require.NoError(t, b.Reject(time.Now()))
	assert.ErrorIs(t, repos.Loans.Save(ctx, b), uow.ErrTransactionConflict)

	got, _ := repos.Loans.GetByLoanID(ctx, "L1")
	assert.Equal(t, loan.StatusApproved, got.Status)
	assert.Equal(t, int64(1), s.Conflicts())
}

func TestStore_WithinLoanTxRetries(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Repos().Loans.Create(ctx, &loan.Loan{LoanID: "L1", Status: loan.StatusPending}))

	calls := 0
	err := s.WithinLoanTx(ctx, "L1", func(r uow.Repos, l *loan.Loan) error {
		calls++
		if calls == 1 {
			// a rival commit lands between read and write
			rival, _ := s.Repos().Loans.GetByLoanID(ctx, "L1")
			require.NoError(t, s.Repos().Loans.Save(ctx, rival))
		}
		return r.Loans.Save(ctx, l)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	got, _ := s.Repos().Loans.GetByLoanID(ctx, "L1")
	assert.Equal(t, uint64(2), got.Version)
}

func TestStore_DecisionPerLoan(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := s.Repos()
	require.NoError(t, r.Decisions.Create(ctx, &decision.Decision{DecisionID: "D1", LoanID: "L1"}))
	assert.ErrorIs(t, r.Decisions.Create(ctx, &decision.Decision{DecisionID: "D2", LoanID: "L1"}), decision.ErrAlreadyDecided)

	d, err := r.Decisions.GetByDecisionID(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "L1", d.LoanID)
}

func TestStore_PaymentQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := s.Repos()
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Payments.Create(ctx, &payment.Payment{PaymentID: "P1", LoanID: "L1", UserID: "u", Status: payment.StatusSuccess, PaidAt: day.Add(time.Hour), PeriodKey: "2025-01"}))
	require.NoError(t, r.Payments.Create(ctx, &payment.Payment{PaymentID: "P2", LoanID: "L1", UserID: "u", Status: payment.StatusFailed, PaidAt: day.Add(2 * time.Hour), PeriodKey: "2025-01"}))
	assert.Error(t, r.Payments.Create(ctx, &payment.Payment{PaymentID: "P1", LoanID: "L1"}))

	ok, _ := r.Payments.ExistsSuccessInPeriod(ctx, "L1", "2025-01")
	assert.True(t, ok)
	ok, _ = r.Payments.ExistsSuccessInPeriod(ctx, "L1", "2025-02")
	assert.False(t, ok)

	got, err := r.Payments.ListSuccessBetween(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].PaymentID)

	latest, err := r.Payments.FirstForLoanBetween(ctx, "L1", day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "P2", latest.PaymentID)
}
