package notify

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LoanInfo is the slice of a loan the message texts need.
type LoanInfo struct {
	LoanID      string
	OwnerID     string
	OwnerName   string
	Category    string
	Principal   decimal.Decimal
	Installment decimal.Decimal
	// DueDay is the last day of the payment window.
	DueDay int
}

func NewLoanRequest(adminID string, l LoanInfo) Notification {
	return New(adminID, TypeNewLoan, l.LoanID,
		"🔔 New Loan Request",
		fmt.Sprintf("%s requested %s loan of %s", l.OwnerName, l.Category, Rupees(l.Principal)),
	).With("userId", l.OwnerID)
}

func LoanStatus(l LoanInfo, approved bool) Notification {
	if approved {
		return New(l.OwnerID, TypeLoanStatus, l.LoanID,
			"✅ Loan Approved!",
			fmt.Sprintf("Congratulations! Your %s loan of %s has been approved. Installment: %s",
				l.Category, Rupees(l.Principal), Rupees(l.Installment)),
		).With("status", "APPROVED")
	}
	return New(l.OwnerID, TypeLoanStatus, l.LoanID,
		"❌ Loan Request Rejected",
		fmt.Sprintf("Your %s loan request of %s has been rejected. Please contact support for more details.",
			l.Category, Rupees(l.Principal)),
	).With("status", "REJECTED")
}

func PaymentConfirmed(l LoanInfo, paymentID string, amount decimal.Decimal, completed bool) Notification {
	body := fmt.Sprintf("Thank you! We received your payment of %s for your %s loan.", Rupees(amount), l.Category)
	if completed {
		body += " Your loan is now fully paid."
	} else if l.DueDay > 0 {
		body += fmt.Sprintf(" Your next payment is due by day %d of the next period.", l.DueDay)
	}
	return New(l.OwnerID, TypePaymentConfirmed, l.LoanID, "✅ Payment Received!", body).
		With("paymentId", paymentID)
}
