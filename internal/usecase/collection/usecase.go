package collection

import (
	"context"
	"fmt"
	"time"

	"finapp-backend/internal/domain/collection"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/session"
	loanuc "finapp-backend/internal/usecase/loan"
	paymentuc "finapp-backend/internal/usecase/payment"

	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Renderer turns a summary into a document, e.g. a PDF.
type Renderer interface {
	Render(s collection.DailySummary) ([]byte, error)
	ContentType() string
	Ext() string
}

// Store persists a rendered report and returns where it ended up.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type DailyDTO struct {
	Date          string                  `json:"date"`
	From          time.Time               `json:"from"`
	To            time.Time               `json:"to"`
	TotalAmount   loanuc.Money            `json:"total_amount"`
	CustomerCount int                     `json:"customer_count"`
	PaymentCount  int                     `json:"payment_count"`
	Payments      []*paymentuc.PaymentDTO `json:"payments"`
}

type PublishResult struct {
	Date         string `json:"date"`
	Location     string `json:"location"`
	PaymentCount int    `json:"payment_count"`
}

type Usecase struct {
	payments payment.Repository
	loc      *time.Location
	renderer Renderer
	store    Store
	now      func() time.Time
}

func NewUsecase(payments payment.Repository, loc *time.Location) *Usecase {
	if loc == nil {
		loc = time.UTC
	}
	return &Usecase{payments: payments, loc: loc, now: time.Now}
}

// WithReports enables PublishDailyReport.
func (u *Usecase) WithReports(r Renderer, s Store) *Usecase {
	u.renderer, u.store = r, s
	return u
}

// ParseDate reads YYYY-MM-DD in the collection time zone; empty means today.
func (u *Usecase) ParseDate(s string) (time.Time, error) {
	if s == "" {
		return u.now().In(u.loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, s, u.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", loan.ErrInvalidInput)
	}
	return d, nil
}

func (u *Usecase) summarize(ctx context.Context, day time.Time) (collection.DailySummary, error) {
	from, to := loan.StartOfDay(day, u.loc), loan.EndOfDay(day, u.loc)
	ps, err := u.payments.ListSuccessBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return collection.DailySummary{}, err
	}
	return collection.Summarize(ps, day, u.loc), nil
}

// Daily is the admin view of one day's collections.
func (u *Usecase) Daily(ctx context.Context, sess session.Session, day time.Time) (*DailyDTO, error) {
	if !sess.IsAdmin() {
		return nil, session.ErrForbidden
	}
	s, err := u.summarize(ctx, day)
	if err != nil {
		return nil, err
	}
	return &DailyDTO{
		Date:          s.Date,
		From:          s.From,
		To:            s.To,
		TotalAmount:   loanuc.AsMoney(s.TotalAmount),
		CustomerCount: s.CustomerCount,
		PaymentCount:  s.PaymentCount,
		Payments:      paymentuc.ToDTOs(s.Payments),
	}, nil
}

// PublishDailyReport renders day's summary and hands it to the report store.
func (u *Usecase) PublishDailyReport(ctx context.Context, day time.Time) (*PublishResult, error) {
	if u.renderer == nil || u.store == nil {
		return nil, fmt.Errorf("daily report publishing is not configured")
	}
	s, err := u.summarize(ctx, day)
	if err != nil {
		return nil, err
	}
	body, err := u.renderer.Render(s)
	if err != nil {
		return nil, fmt.Errorf("render daily report %s: %w", s.Date, err)
	}
	key := fmt.Sprintf("daily-collection/%s.%s", s.Date, u.renderer.Ext())
	where, err := u.store.Put(ctx, key, body, u.renderer.ContentType())
	if err != nil {
		return nil, fmt.Errorf("store daily report %s: %w", s.Date, err)
	}
	log.WithFields(log.Fields{"date": s.Date, "location": where, "payments": s.PaymentCount}).Info("daily report published")
	return &PublishResult{Date: s.Date, Location: where, PaymentCount: s.PaymentCount}, nil
}
