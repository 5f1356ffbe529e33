package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/uow"
	"finapp-backend/internal/events"
	"finapp-backend/internal/infrastructure/metrics"
	loanuc "finapp-backend/internal/usecase/loan"
	"finapp-backend/pkg/id"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Config struct {
	Location *time.Location
	// DueDay is the last day of the payment window in each period.
	DueDay int
	// OnePaymentPerPeriod rejects a second SUCCESS payment in the same period.
	OnePaymentPerPeriod bool
}

type Usecase struct {
	uow      uow.UnitOfWork
	loans    loan.Repository
	payments payment.Repository
	cfg      Config

	notifier notify.Dispatcher
	events   events.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, loans loan.Repository, payments payment.Repository, cfg Config) *Usecase {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Usecase{
		uow:      tx,
		loans:    loans,
		payments: payments,
		cfg:      cfg,
		events:   events.Nop{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) WithNotifier(d notify.Dispatcher) *Usecase { u.notifier = d; return u }
func (u *Usecase) WithEvents(p events.Publisher) *Usecase    { u.events = p; return u }
func (u *Usecase) WithMetrics(m *metrics.Metrics) *Usecase   { u.metrics = m; return u }

func validate(in *RecordInput) error {
	if in.LoanID == "" {
		return fmt.Errorf("%w: loan id is required", loan.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", loan.ErrInvalidInput)
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return fmt.Errorf("%w: payment amount has more than 2 decimals", loan.ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = payment.StatusSuccess
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", loan.ErrInvalidInput, in.Status)
	}
	if in.Method == "" {
		in.Method = payment.MethodUPI
	}
	return nil
}

// Record stores a payment for the caller's loan. A SUCCESS payment is applied
// to the balances in the same transaction; overpayment is capped at the
// outstanding amount and the stored payment carries the applied amount.
func (u *Usecase) Record(ctx context.Context, sess session.Session, in RecordInput) (*RecordResult, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	txnRef := in.TransactionID
	if txnRef == "" {
		txnRef = id.NewTxnRef()
	}

	var (
		snap loan.Loan
		paid payment.Payment
	)
	// fn may run more than once on conflict; everything it builds is local.
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if !sess.Owns(l.UserID) {
			return loan.ErrNotOwner
		}
		if l.Status != loan.StatusApproved {
			return fmt.Errorf("%w: status is %s", loan.ErrInvalidState, l.Status)
		}

		now := u.now()
		periodKey := l.Schedule.PeriodUnit.PeriodKey(now, u.cfg.Location)
		amount := in.Amount
		if in.Status == payment.StatusSuccess {
			if u.cfg.OnePaymentPerPeriod {
				exists, err := r.Payments.ExistsSuccessInPeriod(ctx, l.LoanID, periodKey)
				if err != nil {
					return err
				}
				if exists {
					return loan.ErrAlreadyPaid
				}
			}
			applied, err := l.ApplyPayment(in.Amount, now)
			if err != nil {
				return err
			}
			amount = applied
		}

		p := &payment.Payment{
			PaymentID:     id.NewID32(),
			LoanID:        l.LoanID,
			UserID:        l.UserID,
			UserName:      l.UserName,
			Amount:        amount,
			PaidAt:        now,
			Status:        in.Status,
			TransactionID: txnRef,
			Method:        in.Method,
			DayNumber:     l.DayNumber(now),
			PeriodKey:     periodKey,
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		if in.Status == payment.StatusSuccess {
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}
		snap, paid = *l, *p
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		if errors.Is(err, uow.ErrTransactionConflict) {
			u.metrics.TxConflict()
		}
		return nil, err
	}

	u.metrics.PaymentRecorded(string(paid.Status))
	log.WithFields(log.Fields{
		"loan_id":    paid.LoanID,
		"payment_id": paid.PaymentID,
		"status":     paid.Status,
		"amount":     paid.Amount.StringFixed(2),
	}).Info("payment recorded")

	if paid.Status == payment.StatusSuccess {
		u.afterSuccess(ctx, &snap, &paid)
	}
	return &RecordResult{
		Payment:   ToDTO(&paid),
		Requested: loanuc.AsMoney(in.Amount),
		Loan:      loanuc.ToDTO(&snap),
	}, nil
}

func (u *Usecase) afterSuccess(ctx context.Context, l *loan.Loan, p *payment.Payment) {
	completed := l.Status == loan.StatusCompleted
	if u.notifier != nil {
		n := notify.PaymentConfirmed(loanuc.NotifyInfo(l, u.cfg.DueDay), p.PaymentID, p.Amount, completed)
		if err := u.notifier.Dispatch(ctx, n); err != nil {
			log.WithError(err).WithField("loan_id", l.LoanID).Warn("payment confirmation notification")
			u.metrics.NotificationFailed(string(notify.TypePaymentConfirmed))
		}
	}
	u.events.Publish(events.Event{
		Kind:   events.KindPaymentRecorded,
		LoanID: l.LoanID,
		UserID: l.UserID,
		At:     p.PaidAt,
		Data: map[string]any{
			"payment_id":       p.PaymentID,
			"amount":           p.Amount.StringFixed(2),
			"remaining_amount": l.RemainingAmount.StringFixed(2),
		},
	})
	if completed {
		u.metrics.LoanTransition(string(loan.StatusCompleted))
		u.events.Publish(events.Event{Kind: events.KindLoanCompleted, LoanID: l.LoanID, UserID: l.UserID, At: p.PaidAt})
	}
}

func (u *Usecase) visibleLoan(ctx context.Context, sess session.Session, loanID string) (*loan.Loan, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	if !sess.CanView(l.UserID) {
		return nil, loan.ErrNotOwner
	}
	return l, nil
}

// HasPaidInPeriod reports whether a SUCCESS payment exists in the period holding at.
func (u *Usecase) HasPaidInPeriod(ctx context.Context, sess session.Session, loanID string, at time.Time) (bool, error) {
	l, err := u.visibleLoan(ctx, sess, loanID)
	if err != nil {
		return false, err
	}
	return u.payments.ExistsSuccessInPeriod(ctx, l.LoanID, l.Schedule.PeriodUnit.PeriodKey(at, u.cfg.Location))
}

// TodayPayment returns the latest payment of any status made today, or
// payment.ErrNotFound.
func (u *Usecase) TodayPayment(ctx context.Context, sess session.Session, loanID string) (*PaymentDTO, error) {
	l, err := u.visibleLoan(ctx, sess, loanID)
	if err != nil {
		return nil, err
	}
	return u.today(ctx, l.LoanID, u.now())
}

func (u *Usecase) today(ctx context.Context, loanID string, now time.Time) (*PaymentDTO, error) {
	loc := u.cfg.Location
	p, err := u.payments.FirstForLoanBetween(ctx, loanID, loan.StartOfDay(now, loc), loan.EndOfDay(now, loc))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return ToDTO(p), nil
}

func (u *Usecase) Status(ctx context.Context, sess session.Session, loanID string) (*StatusDTO, error) {
	l, err := u.visibleLoan(ctx, sess, loanID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	unit := l.Schedule.PeriodUnit
	key := unit.PeriodKey(now, u.cfg.Location)
	paid, err := u.payments.ExistsSuccessInPeriod(ctx, l.LoanID, key)
	if err != nil {
		return nil, err
	}
	out := &StatusDTO{
		LoanID:          l.LoanID,
		LoanStatus:      string(l.Status),
		PeriodKey:       key,
		PaidInPeriod:    paid,
		DayOfPeriod:     unit.DayOfPeriod(now, u.cfg.Location),
		DueDay:          u.cfg.DueDay,
		Installment:     loanuc.AsMoney(l.Schedule.Installment),
		RemainingAmount: loanuc.AsMoney(l.RemainingAmount),
	}
	switch today, err := u.today(ctx, l.LoanID, now); {
	case err == nil:
		out.Today = today
	case !errors.Is(err, payment.ErrNotFound):
		return nil, err
	}
	return out, nil
}

// ListByLoan returns the loan's payments, newest first.
func (u *Usecase) ListByLoan(ctx context.Context, sess session.Session, loanID string) ([]*PaymentDTO, error) {
	l, err := u.visibleLoan(ctx, sess, loanID)
	if err != nil {
		return nil, err
	}
	ps, err := u.payments.ListByLoanID(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	return ToDTOs(ps), nil
}

// ListMine returns every payment the caller made, newest first.
func (u *Usecase) ListMine(ctx context.Context, sess session.Session) ([]*PaymentDTO, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	ps, err := u.payments.ListByUserID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return ToDTOs(ps), nil
}
