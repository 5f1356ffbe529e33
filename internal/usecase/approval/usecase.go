package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finapp-backend/internal/domain/decision"
	domainLoan "finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"
	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/uow"
	"finapp-backend/internal/events"
	"finapp-backend/internal/infrastructure/metrics"
	loanuc "finapp-backend/internal/usecase/loan"
	"finapp-backend/pkg/id"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	uow    uow.UnitOfWork
	dueDay int

	notifier notify.Dispatcher
	events   events.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewUsecase decides loans inside tx. dueDay only feeds notification texts.
func NewUsecase(tx uow.UnitOfWork, dueDay int) *Usecase {
	return &Usecase{
		uow:    tx,
		dueDay: dueDay,
		events: events.Nop{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) WithNotifier(d notify.Dispatcher) *Usecase { u.notifier = d; return u }
func (u *Usecase) WithEvents(p events.Publisher) *Usecase    { u.events = p; return u }
func (u *Usecase) WithMetrics(m *metrics.Metrics) *Usecase   { u.metrics = m; return u }

func (u *Usecase) Approve(ctx context.Context, sess session.Session, loanID string) (*DecisionDTO, error) {
	return u.decide(ctx, sess, loanID, decision.OutcomeApproved)
}

func (u *Usecase) Reject(ctx context.Context, sess session.Session, loanID string) (*DecisionDTO, error) {
	return u.decide(ctx, sess, loanID, decision.OutcomeRejected)
}

func (u *Usecase) decide(ctx context.Context, sess session.Session, loanID string, outcome decision.Outcome) (*DecisionDTO, error) {
	if !sess.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins decide loans", session.ErrForbidden)
	}
	if u.uow == nil {
		return nil, domainLoan.ErrInvalidTransition
	}

	var (
		dto  *DecisionDTO
		snap domainLoan.Loan
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		now := u.now()

		// State guard: only pending -> approved/rejected
		var err error
		if outcome == decision.OutcomeApproved {
			err = l.Approve(now)
		} else {
			err = l.Reject(now)
		}
		if err != nil {
			return err
		}

		if _, err := r.Decisions.GetByLoanID(ctx, l.LoanID); err == nil {
			return decision.ErrAlreadyDecided
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		d := &decision.Decision{
			DecisionID: id.NewID32(),
			LoanID:     l.LoanID,
			AdminID:    sess.UserID,
			Outcome:    outcome,
			DecidedAt:  now,
		}
		if err := r.Decisions.Create(ctx, d); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		snap = *l
		dto = &DecisionDTO{
			DecisionID: d.DecisionID,
			LoanID:     l.LoanID,
			AdminID:    d.AdminID,
			Outcome:    string(d.Outcome),
			DecidedAt:  d.DecidedAt,
			Loan:       loanuc.ToDTO(l),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainLoan.ErrNotFound
		}
		if errors.Is(err, uow.ErrTransactionConflict) {
			u.metrics.TxConflict()
		}
		return nil, err
	}

	u.metrics.LoanTransition(string(snap.Status))
	log.WithFields(log.Fields{"loan_id": snap.LoanID, "admin_id": sess.UserID, "outcome": outcome}).Info("loan decided")

	approved := outcome == decision.OutcomeApproved
	if u.notifier != nil {
		n := notify.LoanStatus(loanuc.NotifyInfo(&snap, u.dueDay), approved)
		if err := u.notifier.Dispatch(ctx, n); err != nil {
			log.WithError(err).WithField("loan_id", snap.LoanID).Warn("loan status notification")
			u.metrics.NotificationFailed(string(notify.TypeLoanStatus))
		}
	}
	kind := events.KindLoanRejected
	if approved {
		kind = events.KindLoanApproved
	}
	u.events.Publish(events.Event{Kind: kind, LoanID: snap.LoanID, UserID: snap.UserID, At: dto.DecidedAt})
	return dto, nil
}
