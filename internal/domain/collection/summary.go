// Package collection summarizes one calendar day of successful payments for
// the admin dashboard and the daily report.
package collection

import (
	"sort"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type DailySummary struct {
	Date          string             `json:"date"`
	From          time.Time          `json:"from"`
	To            time.Time          `json:"to"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	CustomerCount int                `json:"customer_count"`
	PaymentCount  int                `json:"payment_count"`
	Payments      []*payment.Payment `json:"payments"`
}

// Summarize keeps SUCCESS payments inside [start, end] of day's local calendar
// day. The input is not modified; payments come back newest first.
func Summarize(payments []*payment.Payment, day time.Time, loc *time.Location) DailySummary {
	from, to := loan.StartOfDay(day, loc), loan.EndOfDay(day, loc)
	out := DailySummary{
		Date:        from.Format("2006-01-02"),
		From:        from,
		To:          to,
		TotalAmount: decimal.Zero,
		Payments:    []*payment.Payment{},
	}

	customers := make(map[string]struct{})
	for _, p := range payments {
		if p == nil || p.Status != payment.StatusSuccess {
			continue
		}
		if p.PaidAt.Before(from) || p.PaidAt.After(to) {
			continue
		}
		out.Payments = append(out.Payments, p)
		out.TotalAmount = out.TotalAmount.Add(p.Amount)
		customers[p.UserID] = struct{}{}
	}
	sort.SliceStable(out.Payments, func(i, j int) bool {
		return out.Payments[i].PaidAt.After(out.Payments[j].PaidAt)
	})
	out.CustomerCount = len(customers)
	out.PaymentCount = len(out.Payments)
	return out
}
