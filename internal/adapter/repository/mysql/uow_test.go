package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finapp-backend/internal/domain/decision"
	loanDomain "finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/uow"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 0)
	l := makeLoan(t, "u1", time.Now())

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		return r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.OutcomeApproved))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, l.LoanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if _, err := NewDecisionRepository(db).GetByLoanID(ctx, l.LoanID); err != nil {
		t.Fatalf("decision not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 0)
	l := makeLoan(t, "u1", time.Now())
	sentinel := errors.New("boom")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.OutcomeRejected)); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, l.LoanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if _, err := NewDecisionRepository(db).GetByLoanID(ctx, l.LoanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected decision not found after rollback, got %v", err)
	}
}

// Payment row and balance update commit together.
func TestGormUoW_WithinLoanTx_PaymentCommit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 0)
	seed := makeLoan(t, "u1", time.Now())
	if err := seed.Approve(time.Now()); err != nil {
		t.Fatal(err)
	}
	seedLoan(t, db, seed)

	amount := decimal.RequireFromString("8906.67")
	err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != seed.LoanID || l.Status != loanDomain.StatusApproved {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		applied, err := l.ApplyPayment(amount, time.Now())
		if err != nil {
			return err
		}
		if err := r.Payments.Create(ctx, makePaymentAmount(l.LoanID, applied)); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := NewLoanRepository(db).GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if !got.PaidAmount.Equal(amount) || !got.RemainingAmount.Equal(decimal.RequireFromString("97973.33")) {
		t.Fatalf("balances = %s / %s", got.PaidAmount, got.RemainingAmount)
	}
	payments, _ := NewPaymentRepository(db).ListByLoanID(ctx, seed.LoanID)
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 0)
	seed := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, seed)

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if err := r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.OutcomeApproved)); err != nil {
			return err
		}
		if err := l.Approve(time.Now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := NewLoanRepository(db).GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if got.Status != loanDomain.StatusPending || got.Version != 0 {
		t.Fatalf("expected untouched pending loan after rollback, got %s v%d", got.Status, got.Version)
	}
	if _, err := NewDecisionRepository(db).GetByLoanID(ctx, seed.LoanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected decision absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_RetriesConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 3)
	seed := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, seed)

	calls := 0
	err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		calls++
		if calls == 1 {
			// a concurrent writer wins the row first
			rival := *l
			if err := r.Loans.Save(ctx, &rival); err != nil {
				return err
			}
		}
		if err := l.Approve(time.Now()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	got, _ := NewLoanRepository(db).GetByLoanID(ctx, seed.LoanID)
	if got.Status != loanDomain.StatusApproved || got.Version != 1 {
		t.Fatalf("got %s v%d, want APPROVED v1", got.Status, got.Version)
	}
}

func TestGormUoW_WithinLoanTx_ConflictExhausted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 2)
	seed := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, seed)

	calls := 0
	err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		calls++
		return uow.ErrTransactionConflict
	})
	if !errors.Is(err, uow.ErrTransactionConflict) || calls != 2 {
		t.Fatalf("err=%v calls=%d, want conflict after 2 calls", err, calls)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db, 0)
	err := guow.WithinLoanTx(ctx, "ffffffffffffffffffffffffffffffff", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func makePaymentAmount(loanID string, amount decimal.Decimal) *payment.Payment {
	p := makePayment(loanID, "u1", payment.StatusSuccess, time.Now())
	p.Amount = amount
	return p
}
