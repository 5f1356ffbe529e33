package reminder

import (
	"testing"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func approvedLoan(period loan.PeriodUnit) *loan.Loan {
	start := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	return &loan.Loan{
		LoanID:   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		UserID:   "client-1",
		UserName: "Asha",
		Category: loan.CategoryHome,
		Status:   loan.StatusApproved,
		Schedule: loan.Schedule{
			PeriodUnit:   period,
			Installment:  decimal.RequireFromString("8906.67"),
			TotalPayable: decimal.RequireFromString("106880"),
		},
		StartDate: &start,
	}
}

func on(day int) time.Time { return time.Date(2025, 3, day, 9, 0, 0, 0, time.UTC) }

func TestEvaluate_Table(t *testing.T) {
	p := NewPolicy(10, time.UTC)
	tests := []struct {
		name       string
		day        int
		slot       Slot
		paid       bool
		want       Severity
		remaining  int
		escalation int
	}{
		{"day 1 low", 1, SlotMorning, false, SeverityLow, 0, 0},
		{"day 7 low", 7, SlotMorning, false, SeverityLow, 0, 0},
		{"day 8 medium", 8, SlotMorning, false, SeverityMedium, 3, 0},
		{"day 9 medium", 9, SlotMorning, false, SeverityMedium, 2, 0},
		{"due day morning", 10, SlotMorning, false, SeverityHigh, 0, 1},
		{"due day midday", 10, SlotMidday, false, SeverityHigh, 0, 2},
		{"due day afternoon", 10, SlotAfternoon, false, SeverityHigh, 0, 3},
		{"after due day", 11, SlotMorning, false, SeverityNone, 0, 0},
		{"end of month", 28, SlotMorning, false, SeverityNone, 0, 0},
		{"midday before due day", 5, SlotMidday, false, SeverityNone, 0, 0},
		{"afternoon before due day", 9, SlotAfternoon, false, SeverityNone, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Evaluate(Input{Loan: approvedLoan(loan.PeriodMonth), Now: on(tc.day), Slot: tc.slot, PaidInPeriod: tc.paid})
			assert.Equal(t, tc.want, d.Severity)
			assert.Equal(t, tc.remaining, d.DaysRemaining)
			assert.Equal(t, tc.escalation, d.Escalation)
			assert.Equal(t, tc.day, d.DayOfPeriod)
		})
	}
}

func TestEvaluate_PaidInPeriodNeverReminds(t *testing.T) {
	p := NewPolicy(10, time.UTC)
	for day := 1; day <= 28; day++ {
		for _, slot := range []Slot{SlotMorning, SlotMidday, SlotAfternoon} {
			d := p.Evaluate(Input{Loan: approvedLoan(loan.PeriodMonth), Now: on(day), Slot: slot, PaidInPeriod: true})
			if d.Remind() {
				t.Fatalf("day %d %s: reminded a paid loan (%v)", day, slot, d.Severity)
			}
		}
	}
}

func TestEvaluate_NotApproved(t *testing.T) {
	p := NewPolicy(10, time.UTC)
	for _, st := range []loan.Status{loan.StatusPending, loan.StatusRejected, loan.StatusCompleted} {
		l := approvedLoan(loan.PeriodMonth)
		l.Status = st
		assert.False(t, p.Evaluate(Input{Loan: l, Now: on(10), Slot: SlotMorning}).Remind(), st)
	}
}

func TestEvaluate_DailyPeriod(t *testing.T) {
	// every day is day 1 of its own period
	p := NewPolicy(10, time.UTC)
	d := p.Evaluate(Input{Loan: approvedLoan(loan.PeriodDay), Now: on(10), Slot: SlotMorning})
	assert.Equal(t, SeverityLow, d.Severity)
	assert.Equal(t, 1, d.DayOfPeriod)

	p = NewPolicy(1, time.UTC)
	d = p.Evaluate(Input{Loan: approvedLoan(loan.PeriodDay), Now: on(10), Slot: SlotAfternoon})
	assert.Equal(t, SeverityHigh, d.Severity)
	assert.Equal(t, 3, d.Escalation)
}

func TestEvaluate_UsesPolicyLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	p := NewPolicy(10, ist)
	// 9 Mar 20:00 UTC is already the 10th in IST.
	now := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	d := p.Evaluate(Input{Loan: approvedLoan(loan.PeriodMonth), Now: now, Slot: SlotMorning})
	assert.Equal(t, SeverityHigh, d.Severity)
}

func TestNotification_Types(t *testing.T) {
	p := NewPolicy(10, time.UTC)
	l := approvedLoan(loan.PeriodMonth)

	tests := []struct {
		d    Decision
		want notify.Type
	}{
		{Decision{Severity: SeverityLow, DayOfPeriod: 2}, notify.TypeReminder},
		{Decision{Severity: SeverityMedium, DayOfPeriod: 8, DaysRemaining: 3}, notify.TypeReminder},
		{Decision{Severity: SeverityHigh, DayOfPeriod: 10, Escalation: 1}, notify.TypeReminder},
		{Decision{Severity: SeverityHigh, DayOfPeriod: 10, Escalation: 2}, notify.TypeReminderUrgent},
		{Decision{Severity: SeverityHigh, DayOfPeriod: 10, Escalation: 3}, notify.TypeReminderFinal},
	}
	for _, tc := range tests {
		n, ok := p.Notification(l, tc.d)
		assert.True(t, ok)
		assert.Equal(t, tc.want, n.Type())
		assert.Equal(t, l.UserID, n.RecipientID)
		assert.Equal(t, l.LoanID, n.Data[notify.KeyLoanID])
		assert.NoError(t, n.Validate())
	}

	n, _ := p.Notification(l, Decision{Severity: SeverityMedium, DaysRemaining: 3})
	assert.Contains(t, n.Body, "₹8,906.67")
	assert.Contains(t, n.Body, "Only 3 days remaining")

	_, ok := p.Notification(l, Decision{})
	assert.False(t, ok)
}

func TestParseSlot(t *testing.T) {
	for _, s := range []Slot{SlotMorning, SlotMidday, SlotAfternoon} {
		got, err := ParseSlot(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSlot("evening")
	assert.Error(t, err)
}
