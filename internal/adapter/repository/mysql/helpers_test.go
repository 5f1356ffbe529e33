package mysql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/infrastructure/db"
	"finapp-backend/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the real schema. A single
// connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func makeLoan(t *testing.T, userID string, requestedAt time.Time) *loan.Loan {
	t.Helper()
	principal := decimal.NewFromInt(100000)
	rate := decimal.RequireFromString("6.88")
	s, err := loan.DefaultPolicy().Compute(principal, rate, 12)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return &loan.Loan{
		LoanID:         id.NewID32(),
		UserID:         userID,
		UserName:       "Test User",
		Category:       loan.CategoryPersonal,
		Principal:      principal,
		InterestRate:   rate,
		Duration:       12,
		Schedule:       s,
		Status:         loan.StatusPending,
		RequestedAt:    requestedAt.UTC(),
		StateUpdatedAt: requestedAt.UTC(),
	}
}

func seedLoan(t *testing.T, gdb *gorm.DB, l *loan.Loan) {
	t.Helper()
	if err := NewLoanRepository(gdb).Create(t.Context(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
}
