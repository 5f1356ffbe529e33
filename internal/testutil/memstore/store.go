// Package memstore is an in-memory unit of work with optimistic loan
// versioning. It mirrors the gorm repositories closely enough for use-case
// tests, including concurrent payment recording.
package memstore

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"finapp-backend/internal/domain/decision"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/uow"
	"finapp-backend/internal/domain/user"
)

var _ uow.UnitOfWork = (*Store)(nil)

type Store struct {
	// Attempts bounds conflict retries in WithinLoanTx.
	Attempts int

	mu        sync.Mutex
	seq       uint64
	loans     map[string]loan.Loan
	payments  []payment.Payment
	decisions map[string]decision.Decision
	users     map[string]user.User

	conflicts atomic.Int64
}

func New() *Store {
	return &Store{
		Attempts:  uow.DefaultAttempts,
		loans:     make(map[string]loan.Loan),
		decisions: make(map[string]decision.Decision),
		users:     make(map[string]user.User),
	}
}

// Conflicts counts commits rejected by the version check.
func (s *Store) Conflicts() int64 { return s.conflicts.Load() }

// Repos returns auto-committing repositories outside any transaction.
func (s *Store) Repos() uow.Repos { return s.repos(nil) }

func (s *Store) Users() user.Repository { return &userRepo{s: s} }

func (s *Store) repos(t *txn) uow.Repos {
	return uow.Repos{
		Loans:     &loanRepo{s: s, tx: t},
		Payments:  &paymentRepo{s: s, tx: t},
		Decisions: &decisionRepo{s: s, tx: t},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTxn()
	if err := fn(s.repos(t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return uow.Retry(ctx, s.Attempts, func() error {
		return s.WithinTx(ctx, func(r uow.Repos) error {
			l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			// widen the read-modify-write window so racing writers interleave
			runtime.Gosched()
			return fn(r, l)
		})
	})
}

type txn struct {
	loans     map[string]*loan.Loan
	newLoans  map[string]bool
	expected  map[string]uint64
	payments  []*payment.Payment
	decisions []*decision.Decision
}

func newTxn() *txn {
	return &txn{
		loans:    make(map[string]*loan.Loan),
		newLoans: make(map[string]bool),
		expected: make(map[string]uint64),
	}
}

func (s *Store) commit(t *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, prev := range t.expected {
		if cur, ok := s.loans[id]; !ok || cur.Version != prev {
			s.conflicts.Add(1)
			return fmt.Errorf("%w: loan %s changed since it was read", uow.ErrTransactionConflict, id)
		}
	}
	for id := range t.newLoans {
		if _, ok := s.loans[id]; ok {
			return fmt.Errorf("%w: duplicate loan %s", gorm.ErrDuplicatedKey, id)
		}
	}
	for _, d := range t.decisions {
		if _, ok := s.decisions[d.LoanID]; ok {
			return decision.ErrAlreadyDecided
		}
	}
	now := time.Now().UTC()
	for id, l := range t.loans {
		cp := *l
		if t.newLoans[id] {
			s.seq++
			cp.ID = s.seq
			l.ID = cp.ID
			cp.CreatedAt = now
		}
		cp.UpdatedAt = now
		s.loans[id] = cp
	}
	for _, p := range t.payments {
		s.seq++
		p.ID = s.seq
		p.CreatedAt = now
		s.payments = append(s.payments, *p)
	}
	for _, d := range t.decisions {
		s.seq++
		d.ID = s.seq
		s.decisions[d.LoanID] = *d
	}
	return nil
}

// autocommit runs op inside a fresh transaction when the repo is not bound to one.
func (s *Store) autocommit(t *txn, op func(t *txn) error) error {
	if t != nil {
		return op(t)
	}
	t = newTxn()
	if err := op(t); err != nil {
		return err
	}
	return s.commit(t)
}

// ---- loans ----

type loanRepo struct {
	s  *Store
	tx *txn
}

func (r *loanRepo) Create(_ context.Context, l *loan.Loan) error {
	return r.s.autocommit(r.tx, func(t *txn) error {
		cp := *l
		t.loans[l.LoanID] = &cp
		t.newLoans[l.LoanID] = true
		return nil
	})
}

func (r *loanRepo) Save(_ context.Context, l *loan.Loan) error {
	return r.s.autocommit(r.tx, func(t *txn) error {
		prev := l.Version
		if staged, ok := t.loans[l.LoanID]; ok {
			if staged.Version != prev {
				return fmt.Errorf("%w: loan %s", uow.ErrTransactionConflict, l.LoanID)
			}
		} else {
			r.s.mu.Lock()
			cur, ok := r.s.loans[l.LoanID]
			r.s.mu.Unlock()
			if !ok || cur.Version != prev {
				r.s.conflicts.Add(1)
				return fmt.Errorf("%w: loan %s", uow.ErrTransactionConflict, l.LoanID)
			}
			t.expected[l.LoanID] = prev
		}
		l.Version = prev + 1
		cp := *l
		t.loans[l.LoanID] = &cp
		return nil
	})
}

func (r *loanRepo) get(loanID string) (*loan.Loan, error) {
	if r.tx != nil {
		if staged, ok := r.tx.loans[loanID]; ok {
			cp := *staged
			return &cp, nil
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[loanID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *loanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	return r.get(loanID)
}

func (r *loanRepo) GetByLoanIDForUpdate(_ context.Context, loanID string) (*loan.Loan, error) {
	return r.get(loanID)
}

func (r *loanRepo) list(keep func(*loan.Loan) bool) []*loan.Loan {
	r.s.mu.Lock()
	merged := make(map[string]loan.Loan, len(r.s.loans))
	for id, l := range r.s.loans {
		merged[id] = l
	}
	r.s.mu.Unlock()
	if r.tx != nil {
		for id, l := range r.tx.loans {
			merged[id] = *l
		}
	}
	out := make([]*loan.Loan, 0, len(merged))
	for _, l := range merged {
		l := l
		if keep(&l) {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out
}

func (r *loanRepo) ListByUser(_ context.Context, userID string) ([]*loan.Loan, error) {
	return r.list(func(l *loan.Loan) bool { return l.UserID == userID }), nil
}

func (r *loanRepo) ListByStatus(_ context.Context, status loan.Status) ([]*loan.Loan, error) {
	return r.list(func(l *loan.Loan) bool { return l.Status == status }), nil
}

func (r *loanRepo) ListAll(_ context.Context) ([]*loan.Loan, error) {
	return r.list(func(*loan.Loan) bool { return true }), nil
}

// ---- payments ----

type paymentRepo struct {
	s  *Store
	tx *txn
}

func (r *paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	return r.s.autocommit(r.tx, func(t *txn) error {
		for _, existing := range r.filter(func(*payment.Payment) bool { return true }) {
			if existing.PaymentID == p.PaymentID {
				return fmt.Errorf("%w: payment %s", gorm.ErrDuplicatedKey, p.PaymentID)
			}
		}
		t.payments = append(t.payments, p)
		return nil
	})
}

// filter returns copies, newest first.
func (r *paymentRepo) filter(keep func(*payment.Payment) bool) []*payment.Payment {
	r.s.mu.Lock()
	all := make([]payment.Payment, len(r.s.payments))
	copy(all, r.s.payments)
	r.s.mu.Unlock()
	if r.tx != nil {
		for _, p := range r.tx.payments {
			all = append(all, *p)
		}
	}
	var out []*payment.Payment
	for i := range all {
		if keep(&all[i]) {
			out = append(out, &all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out
}

func (r *paymentRepo) GetByPaymentID(_ context.Context, paymentID string) (*payment.Payment, error) {
	found := r.filter(func(p *payment.Payment) bool { return p.PaymentID == paymentID })
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return found[0], nil
}

func (r *paymentRepo) ListByLoanID(_ context.Context, loanID string) ([]*payment.Payment, error) {
	return r.filter(func(p *payment.Payment) bool { return p.LoanID == loanID }), nil
}

func (r *paymentRepo) ListByUserID(_ context.Context, userID string) ([]*payment.Payment, error) {
	return r.filter(func(p *payment.Payment) bool { return p.UserID == userID }), nil
}

func between(t, from, to time.Time) bool { return !t.Before(from) && !t.After(to) }

func (r *paymentRepo) ListSuccessBetween(_ context.Context, from, to time.Time) ([]*payment.Payment, error) {
	return r.filter(func(p *payment.Payment) bool {
		return p.Status == payment.StatusSuccess && between(p.PaidAt, from, to)
	}), nil
}

func (r *paymentRepo) ExistsSuccessInPeriod(_ context.Context, loanID, periodKey string) (bool, error) {
	found := r.filter(func(p *payment.Payment) bool {
		return p.LoanID == loanID && p.PeriodKey == periodKey && p.Status == payment.StatusSuccess
	})
	return len(found) > 0, nil
}

func (r *paymentRepo) FirstForLoanBetween(_ context.Context, loanID string, from, to time.Time) (*payment.Payment, error) {
	found := r.filter(func(p *payment.Payment) bool { return p.LoanID == loanID && between(p.PaidAt, from, to) })
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return found[0], nil
}

// ---- decisions ----

type decisionRepo struct {
	s  *Store
	tx *txn
}

func (r *decisionRepo) Create(_ context.Context, d *decision.Decision) error {
	return r.s.autocommit(r.tx, func(t *txn) error {
		for _, staged := range t.decisions {
			if staged.LoanID == d.LoanID {
				return decision.ErrAlreadyDecided
			}
		}
		t.decisions = append(t.decisions, d)
		return nil
	})
}

func (r *decisionRepo) GetByLoanID(_ context.Context, loanID string) (*decision.Decision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.decisions[loanID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *decisionRepo) GetByDecisionID(_ context.Context, decisionID string) (*decision.Decision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.decisions {
		if d.DecisionID == decisionID {
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ---- users ----

type userRepo struct{ s *Store }

func (r *userRepo) Upsert(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if cur, ok := r.s.users[u.UserID]; ok {
		u.ID, u.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		r.s.seq++
		u.ID, u.CreatedAt = r.s.seq, now
	}
	u.UpdatedAt = now
	r.s.users[u.UserID] = *u
	return nil
}

func (r *userRepo) GetByUserID(_ context.Context, userID string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *userRepo) ListByRole(_ context.Context, role user.Role) ([]*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*user.User
	for _, u := range r.s.users {
		u := u
		if u.Role == role {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
