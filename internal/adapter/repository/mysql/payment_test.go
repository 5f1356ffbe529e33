package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finapp-backend/internal/domain/payment"
	"finapp-backend/pkg/id"
)

func makePayment(loanID, userID string, status payment.Status, at time.Time) *payment.Payment {
	return &payment.Payment{
		PaymentID:     id.NewID32(),
		LoanID:        loanID,
		UserID:        userID,
		Amount:        decimal.RequireFromString("8906.67"),
		PaidAt:        at,
		Status:        status,
		TransactionID: "TXN" + id.NewID32()[:8],
		Method:        payment.MethodUPI,
		DayNumber:     1,
		PeriodKey:     at.UTC().Format("2006-01"),
	}
}

func TestPaymentRepository_CreateAndQueries(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	l := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, l)

	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	p1 := makePayment(l.LoanID, "u1", payment.StatusSuccess, day.Add(9*time.Hour))
	p2 := makePayment(l.LoanID, "u1", payment.StatusSuccess, day.Add(15*time.Hour))
	p3 := makePayment(l.LoanID, "u1", payment.StatusFailed, day.Add(16*time.Hour))
	p4 := makePayment(l.LoanID, "u1", payment.StatusSuccess, day.Add(-time.Hour))
	for _, p := range []*payment.Payment{p1, p2, p3, p4} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.GetByPaymentID(ctx, p2.PaymentID)
	if err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}
	if !got.Amount.Equal(p2.Amount) || got.Status != payment.StatusSuccess {
		t.Fatalf("unexpected payment: %+v", got)
	}

	byLoan, err := repo.ListByLoanID(ctx, l.LoanID)
	if err != nil || len(byLoan) != 4 || byLoan[0].PaymentID != p3.PaymentID {
		t.Fatalf("ListByLoanID = %d (%v), newest first expected", len(byLoan), err)
	}
	byUser, err := repo.ListByUserID(ctx, "u1")
	if err != nil || len(byUser) != 4 {
		t.Fatalf("ListByUserID = %d (%v)", len(byUser), err)
	}

	end := day.Add(24*time.Hour - time.Millisecond)
	success, err := repo.ListSuccessBetween(ctx, day, end)
	if err != nil {
		t.Fatalf("ListSuccessBetween: %v", err)
	}
	if len(success) != 2 || success[0].PaymentID != p2.PaymentID || success[1].PaymentID != p1.PaymentID {
		t.Fatalf("ListSuccessBetween = %+v", success)
	}

	latest, err := repo.FirstForLoanBetween(ctx, l.LoanID, day, end)
	if err != nil || latest.PaymentID != p3.PaymentID {
		t.Fatalf("FirstForLoanBetween = %+v (%v)", latest, err)
	}
	_, err = repo.FirstForLoanBetween(ctx, l.LoanID, day.Add(48*time.Hour), day.Add(72*time.Hour))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestPaymentRepository_ExistsSuccessInPeriod(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	l := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, l)
	at := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, makePayment(l.LoanID, "u1", payment.StatusFailed, at)); err != nil {
		t.Fatal(err)
	}
	ok, err := repo.ExistsSuccessInPeriod(ctx, l.LoanID, "2025-06")
	if err != nil || ok {
		t.Fatalf("failed payment must not count: ok=%v err=%v", ok, err)
	}

	if err := repo.Create(ctx, makePayment(l.LoanID, "u1", payment.StatusSuccess, at)); err != nil {
		t.Fatal(err)
	}
	ok, err = repo.ExistsSuccessInPeriod(ctx, l.LoanID, "2025-06")
	if err != nil || !ok {
		t.Fatalf("expected paid period: ok=%v err=%v", ok, err)
	}
	ok, _ = repo.ExistsSuccessInPeriod(ctx, l.LoanID, "2025-07")
	if ok {
		t.Fatalf("next period must be unpaid")
	}
}

func TestPaymentRepository_DuplicateID(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	l := makeLoan(t, "u1", time.Now())
	seedLoan(t, db, l)

	p := makePayment(l.LoanID, "u1", payment.StatusSuccess, time.Now())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	dup := *p
	dup.ID = 0
	if err := repo.Create(ctx, &dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}
