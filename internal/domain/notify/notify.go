// Package notify describes the best-effort notifications the loan service
// hands to a delivery transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrDeliveryFailure is logged by callers and never fails the triggering operation.
var ErrDeliveryFailure = errors.New("notification delivery failed")

type Type string

const (
	TypeNewLoan          Type = "NEW_LOAN"
	TypeLoanStatus       Type = "LOAN_STATUS"
	TypePaymentConfirmed Type = "PAYMENT_CONFIRMED"
	TypeReminder         Type = "PAYMENT_REMINDER"
	TypeReminderUrgent   Type = "PAYMENT_REMINDER_URGENT"
	TypeReminderFinal    Type = "PAYMENT_REMINDER_FINAL"
)

// Data keys every notification carries.
const (
	KeyType   = "type"
	KeyLoanID = "loanId"
)

type Notification struct {
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
}

func (n Notification) Type() Type { return Type(n.Data[KeyType]) }

func (n Notification) Validate() error {
	if n.RecipientID == "" {
		return fmt.Errorf("%w: missing recipient", ErrDeliveryFailure)
	}
	if n.Data[KeyType] == "" || n.Data[KeyLoanID] == "" {
		return fmt.Errorf("%w: data must carry %s and %s", ErrDeliveryFailure, KeyType, KeyLoanID)
	}
	return nil
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// New builds a notification with the mandatory data keys set.
func New(recipientID string, t Type, loanID, title, body string) Notification {
	return Notification{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Data:        map[string]string{KeyType: string(t), KeyLoanID: loanID},
	}
}

// With adds an extra data entry.
func (n Notification) With(key, value string) Notification {
	n.Data[key] = value
	return n
}

// Rupees formats an amount as ₹123,456.78; whole amounts drop the paise.
func Rupees(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "00" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
