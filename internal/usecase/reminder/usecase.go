// Package reminder runs the payment reminder sweep for one time slot.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/reminder"
	"finapp-backend/internal/infrastructure/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Report summarises one sweep.
type Report struct {
	Slot       string         `json:"slot"`
	At         time.Time      `json:"at"`
	Evaluated  int            `json:"evaluated"`
	Paid       int            `json:"paid"`
	Sent       int            `json:"sent"`
	Failed     int            `json:"failed"`
	BySeverity map[string]int `json:"by_severity"`

	mu sync.Mutex
}

func (r *Report) add(fn func(r *Report)) {
	r.mu.Lock()
	fn(r)
	r.mu.Unlock()
}

type Usecase struct {
	loans    loan.Repository
	payments payment.Repository
	policy   reminder.Policy
	notifier notify.Dispatcher
	workers  int
	metrics  *metrics.Metrics
	retryGap time.Duration
}

func NewUsecase(loans loan.Repository, payments payment.Repository, policy reminder.Policy, n notify.Dispatcher, workers int) *Usecase {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Usecase{
		loans:    loans,
		payments: payments,
		policy:   policy,
		notifier: n,
		workers:  workers,
		retryGap: 2 * time.Second,
	}
}

func (u *Usecase) WithMetrics(m *metrics.Metrics) *Usecase { u.metrics = m; return u }

// loadActive reads the approved loans, retrying once after a short pause.
func (u *Usecase) loadActive(ctx context.Context) ([]*loan.Loan, error) {
	ls, err := u.loans.ListByStatus(ctx, loan.StatusApproved)
	if err == nil {
		return ls, nil
	}
	log.WithError(err).Warn("reminder: load approved loans, retrying once")
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(u.retryGap):
	}
	ls, err = u.loans.ListByStatus(ctx, loan.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("load approved loans: %w", err)
	}
	return ls, nil
}

// RunSlot evaluates every approved loan for slot at now. A failure on one loan
// is logged and counted and never stops the others.
func (u *Usecase) RunSlot(ctx context.Context, slot reminder.Slot, now time.Time) (*Report, error) {
	rep := &Report{Slot: slot.String(), At: now, BySeverity: map[string]int{}}
	loans, err := u.loadActive(ctx)
	if err != nil {
		return rep, err
	}

	var g errgroup.Group
	g.SetLimit(u.workers)
	for _, l := range loans {
		g.Go(func() error {
			u.remindOne(ctx, l, slot, now, rep)
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(log.Fields{
		"slot":      rep.Slot,
		"evaluated": rep.Evaluated,
		"paid":      rep.Paid,
		"sent":      rep.Sent,
		"failed":    rep.Failed,
	}).Info("reminder sweep finished")
	return rep, ctx.Err()
}

func (u *Usecase) remindOne(ctx context.Context, l *loan.Loan, slot reminder.Slot, now time.Time, rep *Report) {
	if ctx.Err() != nil {
		return
	}
	fields := log.Fields{"loan_id": l.LoanID, "slot": slot.String()}

	key := l.Schedule.PeriodUnit.PeriodKey(now, u.policy.Location)
	paid, err := u.payments.ExistsSuccessInPeriod(ctx, l.LoanID, key)
	if err != nil {
		log.WithError(err).WithFields(fields).Warn("reminder: payment lookup")
		rep.add(func(r *Report) { r.Evaluated++; r.Failed++ })
		return
	}

	d := u.policy.Evaluate(reminder.Input{Loan: l, Now: now, Slot: slot, PaidInPeriod: paid})
	n, ok := u.policy.Notification(l, d)
	rep.add(func(r *Report) {
		r.Evaluated++
		if paid {
			r.Paid++
		}
	})
	if !ok {
		return
	}

	if err := u.notifier.Dispatch(ctx, n); err != nil {
		log.WithError(err).WithFields(fields).Warn("reminder: dispatch")
		u.metrics.NotificationFailed(string(n.Type()))
		rep.add(func(r *Report) { r.Failed++ })
		return
	}
	u.metrics.ReminderSent(slot.String(), d.Severity.String())
	rep.add(func(r *Report) {
		r.Sent++
		r.BySeverity[d.Severity.String()]++
	})
}
