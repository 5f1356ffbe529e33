package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/notify"
	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/user"
	"finapp-backend/internal/events"
	"finapp-backend/internal/infrastructure/metrics"
	"finapp-backend/pkg/id"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Limits bounds what a client may request. Zero maxima disable the check.
type Limits struct {
	MinPrincipal decimal.Decimal
	MaxPrincipal decimal.Decimal
	MinDuration  int
	MaxDuration  int
}

type Usecase struct {
	repo   loan.Repository
	users  user.Repository
	policy loan.Policy
	limits Limits

	notifier notify.Dispatcher
	events   events.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewUsecase(r loan.Repository, users user.Repository, policy loan.Policy, limits Limits) *Usecase {
	return &Usecase{
		repo:   r,
		users:  users,
		policy: policy,
		limits: limits,
		events: events.Nop{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) WithNotifier(d notify.Dispatcher) *Usecase { u.notifier = d; return u }
func (u *Usecase) WithEvents(p events.Publisher) *Usecase    { u.events = p; return u }
func (u *Usecase) WithMetrics(m *metrics.Metrics) *Usecase   { u.metrics = m; return u }

func (u *Usecase) checkLimits(in QuoteInput) error {
	lim := u.limits
	if !lim.MinPrincipal.IsZero() && in.Principal.LessThan(lim.MinPrincipal) {
		return fmt.Errorf("%w: principal below minimum %s", loan.ErrInvalidInput, lim.MinPrincipal.StringFixed(2))
	}
	if !lim.MaxPrincipal.IsZero() && in.Principal.GreaterThan(lim.MaxPrincipal) {
		return fmt.Errorf("%w: principal above maximum %s", loan.ErrInvalidInput, lim.MaxPrincipal.StringFixed(2))
	}
	if lim.MinDuration > 0 && in.Duration < lim.MinDuration {
		return fmt.Errorf("%w: duration below minimum %d", loan.ErrInvalidInput, lim.MinDuration)
	}
	if lim.MaxDuration > 0 && in.Duration > lim.MaxDuration {
		return fmt.Errorf("%w: duration above maximum %d", loan.ErrInvalidInput, lim.MaxDuration)
	}
	return nil
}

func (u *Usecase) schedule(in QuoteInput) (loan.Schedule, decimal.Decimal, error) {
	if !in.Category.Valid() {
		return loan.Schedule{}, decimal.Zero, fmt.Errorf("%w: unknown category %q", loan.ErrInvalidInput, in.Category)
	}
	rate := in.Category.DefaultRate()
	if in.Rate != nil {
		rate = *in.Rate
	}
	if err := u.checkLimits(in); err != nil {
		return loan.Schedule{}, decimal.Zero, err
	}
	s, err := u.policy.Compute(in.Principal, rate, in.Duration)
	if err != nil {
		return loan.Schedule{}, decimal.Zero, err
	}
	return s, rate, nil
}

// Quote previews the repayment schedule without persisting anything.
func (u *Usecase) Quote(in QuoteInput) (*QuoteDTO, error) {
	s, rate, err := u.schedule(in)
	if err != nil {
		return nil, err
	}
	return &QuoteDTO{
		Category:         string(in.Category),
		Principal:        AsMoney(in.Principal),
		InterestRate:     AsMoney(rate),
		Duration:         in.Duration,
		DurationUnit:     string(s.DurationUnit),
		PeriodUnit:       string(s.PeriodUnit),
		TotalInterest:    AsMoney(s.TotalInterest),
		TotalPayable:     AsMoney(s.TotalPayable),
		Installment:      AsMoney(s.Installment),
		FinalInstallment: AsMoney(s.FinalInstallment),
		InstallmentCount: s.InstallmentCount,
		TermDays:         s.TermDays,
	}, nil
}

// Create submits a PENDING loan for the calling client and tells every admin.
func (u *Usecase) Create(ctx context.Context, sess session.Session, in CreateLoanInput) (*LoanDTO, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	if sess.Role != user.RoleClient {
		return nil, fmt.Errorf("%w: only clients can request loans", session.ErrForbidden)
	}
	s, rate, err := u.schedule(in.QuoteInput)
	if err != nil {
		return nil, err
	}

	name, phone := in.UserName, in.PhoneNumber
	profile, err := u.users.GetByUserID(ctx, sess.UserID)
	switch {
	case err == nil:
		if name == "" {
			name = profile.Name
		}
		if phone == "" {
			phone = profile.PhoneNumber
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := u.now()
	l := &loan.Loan{
		LoanID:          id.NewID32(),
		UserID:          sess.UserID,
		UserName:        name,
		PhoneNumber:     phone,
		Category:        in.Category,
		Principal:       in.Principal.Round(2),
		InterestRate:    rate,
		Duration:        in.Duration,
		Schedule:        s,
		Status:          loan.StatusPending,
		RequestedAt:     now,
		PaidAmount:      decimal.Zero,
		RemainingAmount: s.TotalPayable,
		StateUpdatedAt:  now,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.metrics.LoanTransition(string(l.Status))
	log.WithFields(log.Fields{"loan_id": l.LoanID, "user_id": l.UserID, "category": l.Category}).Info("loan requested")

	u.notifyAdmins(ctx, l)
	u.events.Publish(events.Event{Kind: events.KindLoanCreated, LoanID: l.LoanID, UserID: l.UserID, At: now})
	return ToDTO(l), nil
}

// notifyAdmins is best-effort; failures are logged and counted only.
func (u *Usecase) notifyAdmins(ctx context.Context, l *loan.Loan) {
	if u.notifier == nil {
		return
	}
	admins, err := u.users.ListByRole(ctx, user.RoleAdmin)
	if err != nil {
		log.WithError(err).WithField("loan_id", l.LoanID).Warn("list admins for new loan notification")
		u.metrics.NotificationFailed(string(notify.TypeNewLoan))
		return
	}
	info := NotifyInfo(l, 0)
	for _, a := range admins {
		if err := u.notifier.Dispatch(ctx, notify.NewLoanRequest(a.UserID, info)); err != nil {
			log.WithError(err).WithFields(log.Fields{"loan_id": l.LoanID, "admin_id": a.UserID}).Warn("new loan notification")
			u.metrics.NotificationFailed(string(notify.TypeNewLoan))
		}
	}
}

func (u *Usecase) Get(ctx context.Context, sess session.Session, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	if !sess.CanView(l.UserID) {
		return nil, loan.ErrNotOwner
	}
	return ToDTO(l), nil
}

// List returns every loan for admins and the caller's own loans for clients,
// newest request first.
func (u *Usecase) List(ctx context.Context, sess session.Session, f ListFilter) ([]*LoanDTO, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	var (
		ls  []*loan.Loan
		err error
	)
	switch {
	case sess.IsAdmin() && f.Status != "":
		ls, err = u.repo.ListByStatus(ctx, f.Status)
	case sess.IsAdmin():
		ls, err = u.repo.ListAll(ctx)
	default:
		ls, err = u.repo.ListByUser(ctx, sess.UserID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*LoanDTO, 0, len(ls))
	for _, l := range ls {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, ToDTO(l))
	}
	return out, nil
}
