// Package reminder decides which approved loans get a payment reminder and
// how urgent it is. Evaluation is a pure function of the loan, the clock and
// whether the current period is already paid.
package reminder

import (
	"fmt"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"
)

type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	}
	return "none"
}

// Slot is one of the fixed times of day the scheduler evaluates reminders.
type Slot int

const (
	SlotMorning Slot = iota + 1
	SlotMidday
	SlotAfternoon
)

func (s Slot) String() string {
	switch s {
	case SlotMorning:
		return "morning"
	case SlotMidday:
		return "midday"
	case SlotAfternoon:
		return "afternoon"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

func ParseSlot(s string) (Slot, error) {
	switch s {
	case "morning":
		return SlotMorning, nil
	case "midday":
		return SlotMidday, nil
	case "afternoon":
		return SlotAfternoon, nil
	}
	return 0, fmt.Errorf("unknown reminder slot %q", s)
}

// DefaultWindow is the number of days at the start of each period in which
// the installment is due.
const DefaultWindow = 10

type Policy struct {
	// Window W; the due day is W itself.
	Window   int
	Location *time.Location
}

func NewPolicy(window int, loc *time.Location) Policy {
	if window < 1 {
		window = DefaultWindow
	}
	if loc == nil {
		loc = time.Local
	}
	return Policy{Window: window, Location: loc}
}

func (p Policy) DueDay() int { return p.Window }

type Input struct {
	Loan *loan.Loan
	Now  time.Time
	Slot Slot
	// PaidInPeriod is true when a SUCCESS payment exists for the current period.
	PaidInPeriod bool
}

type Decision struct {
	Severity Severity
	// DayOfPeriod is the 1-based day the decision was taken on.
	DayOfPeriod int
	// DaysRemaining counts the due day itself; set for medium reminders.
	DaysRemaining int
	// Escalation is 1..3 on the due day, one step per slot.
	Escalation int
}

func (d Decision) Remind() bool { return d.Severity != SeverityNone }

// Evaluate is stateless; calling it once per slot is what escalates the due day.
func (p Policy) Evaluate(in Input) Decision {
	period := in.Loan.Schedule.PeriodUnit
	day := period.DayOfPeriod(in.Now, p.Location)
	due := p.DueDay()
	out := Decision{DayOfPeriod: day}

	if in.Loan.Status != loan.StatusApproved || in.PaidInPeriod {
		return out
	}
	if day == due {
		out.Severity = SeverityHigh
		out.Escalation = int(in.Slot)
		return out
	}
	// only the morning run reminds ahead of the due day
	if in.Slot != SlotMorning || day > due {
		return out
	}
	if day < due-2 {
		out.Severity = SeverityLow
		return out
	}
	out.Severity = SeverityMedium
	out.DaysRemaining = due - day + 1
	return out
}

// Notification renders the reminder for the loan owner.
func (p Policy) Notification(l *loan.Loan, d Decision) (notify.Notification, bool) {
	if !d.Remind() {
		return notify.Notification{}, false
	}
	amount := notify.Rupees(l.Schedule.Installment)
	var n notify.Notification
	switch {
	case d.Severity == SeverityLow:
		n = notify.New(l.UserID, notify.TypeReminder, l.LoanID,
			"💰 Payment Reminder",
			fmt.Sprintf("Hi %s, your payment of %s is due by day %d of this period.", l.UserName, amount, p.DueDay()))
	case d.Severity == SeverityMedium:
		n = notify.New(l.UserID, notify.TypeReminder, l.LoanID,
			"⏰ Payment Reminder",
			fmt.Sprintf("Your payment of %s is due by day %d. Only %d days remaining!", amount, p.DueDay(), d.DaysRemaining))
	case d.Escalation <= 1:
		n = notify.New(l.UserID, notify.TypeReminder, l.LoanID,
			"⚠️ Final Reminder - Payment Due Today!",
			fmt.Sprintf("This is your LAST DAY to pay %s for your %s. Please pay before 11:59 PM.", amount, l.Category.DisplayName()))
	case d.Escalation == 2:
		n = notify.New(l.UserID, notify.TypeReminderUrgent, l.LoanID,
			"🚨 Urgent: Payment Due Today",
			fmt.Sprintf("You still need to pay %s today! Only 12 hours left.", amount))
	default:
		n = notify.New(l.UserID, notify.TypeReminderFinal, l.LoanID,
			"🔴 FINAL NOTICE: Payment Due in 9 Hours!",
			fmt.Sprintf("LAST REMINDER! Pay %s before midnight. This is your final notice.", amount))
	}
	n = n.With("severity", d.Severity.String()).
		With("dayOfPeriod", fmt.Sprint(d.DayOfPeriod))
	return n, true
}
