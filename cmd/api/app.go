package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"finapp-backend/internal/adapter/auth"
	httpadp "finapp-backend/internal/adapter/http"
	"finapp-backend/internal/adapter/middleware"
	"finapp-backend/internal/adapter/notifier"
	"finapp-backend/internal/adapter/report"
	repo "finapp-backend/internal/adapter/repository/mysql"
	"finapp-backend/internal/config"
	"finapp-backend/internal/domain/notify"
	"finapp-backend/internal/domain/reminder"
	"finapp-backend/internal/events"
	"finapp-backend/internal/infrastructure/bus"
	"finapp-backend/internal/infrastructure/cache"
	"finapp-backend/internal/infrastructure/db"
	"finapp-backend/internal/infrastructure/metrics"
	"finapp-backend/internal/scheduler"
	approvaluc "finapp-backend/internal/usecase/approval"
	collectionuc "finapp-backend/internal/usecase/collection"
	loanuc "finapp-backend/internal/usecase/loan"
	paymentuc "finapp-backend/internal/usecase/payment"
	reminderuc "finapp-backend/internal/usecase/reminder"
	useruc "finapp-backend/internal/usecase/user"
)

const (
	jobMorning    = "reminders-morning"
	jobMidday     = "reminders-midday"
	jobAfternoon  = "reminders-afternoon"
	jobReport     = "daily-report"
	jobNamesUsage = jobMorning + "|" + jobMidday + "|" + jobAfternoon + "|" + jobReport
)

// app holds every long-lived dependency.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	db      *gorm.DB
	rdb     *redis.Client
	nc      *nats.Conn
	metrics *metrics.Metrics
	broker  *events.Broker

	loans       *loanuc.Usecase
	approvals   *approvaluc.Usecase
	payments    *paymentuc.Usecase
	collections *collectionuc.Usecase
	reminders   *reminderuc.Usecase
	profiles    *useruc.Usecase
	jwt         *auth.JWTManager
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// the embedded SQL migrations are MySQL dialect
		if err := db.AutoMigrate(gdb); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		return gdb, nil
	default:
		gdb, err := db.OpenGorm(cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.MigrateUp(gdb); err != nil {
				return nil, err
			}
		}
		return gdb, nil
	}
}

func migrateCmd(cfg *config.Config) error {
	if cfg.DBDriver == "sqlite" {
		_, err := openDB(cfg)
		return err
	}
	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	return db.MigrateUp(gdb)
}

func newApp(ctx context.Context, cfg *config.Config, withRedis bool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	a := &app{cfg: cfg, loc: loc, metrics: metrics.New(), broker: events.NewBroker(64)}

	if a.db, err = openDB(cfg); err != nil {
		return nil, err
	}
	if withRedis {
		if a.rdb, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
	}

	var dispatcher notify.Dispatcher = notifier.LogDispatcher{}
	if cfg.NATSURL != "" {
		if a.nc, err = bus.ConnectNATS(cfg.NATSURL, "finapp-backend"); err != nil {
			return nil, err
		}
		dispatcher = notifier.Multi{notifier.LogDispatcher{}, notifier.NewNATSDispatcher(a.nc, cfg.NATSSubject)}
	}

	loans := repo.NewLoanRepository(a.db)
	payments := repo.NewPaymentRepository(a.db)
	users := repo.NewUserRepository(a.db)
	tx := repo.NewGormUoW(a.db, cfg.Loan.TxAttempts)
	dueDay := cfg.Reminder.Window

	a.loans = loanuc.NewUsecase(loans, users, cfg.LoanPolicy(), loanuc.Limits{
		MinPrincipal: cfg.Loan.MinPrincipal,
		MaxPrincipal: cfg.Loan.MaxPrincipal,
		MinDuration:  cfg.Loan.MinDuration,
		MaxDuration:  cfg.Loan.MaxDuration,
	}).WithNotifier(dispatcher).WithEvents(a.broker).WithMetrics(a.metrics)

	a.approvals = approvaluc.NewUsecase(tx, dueDay).
		WithNotifier(dispatcher).WithEvents(a.broker).WithMetrics(a.metrics)

	a.payments = paymentuc.NewUsecase(tx, loans, payments, paymentuc.Config{
		Location:            loc,
		DueDay:              dueDay,
		OnePaymentPerPeriod: cfg.Loan.OnePaymentPerPeriod,
	}).WithNotifier(dispatcher).WithEvents(a.broker).WithMetrics(a.metrics)

	a.reminders = reminderuc.NewUsecase(loans, payments, reminder.NewPolicy(cfg.Reminder.Window, loc),
		dispatcher, cfg.Reminder.Workers).WithMetrics(a.metrics)

	a.collections = collectionuc.NewUsecase(payments, loc)
	if store, err := reportStore(ctx, cfg.Report); err != nil {
		return nil, err
	} else if store != nil {
		a.collections.WithReports(report.NewPDFRenderer("Daily Collection Report", loc), store)
	}

	a.profiles = useruc.NewUsecase(users)

	var revoker auth.Revoker
	if a.rdb != nil {
		revoker = auth.NewRedisRevoker(a.rdb)
	}
	a.jwt = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL(), revoker)
	return a, nil
}

func reportStore(ctx context.Context, rc config.ReportConfig) (collectionuc.Store, error) {
	switch rc.Store {
	case "s3":
		return report.NewS3Store(ctx, report.S3Options{
			Bucket:    rc.S3Bucket,
			Region:    rc.S3Region,
			Endpoint:  rc.S3Endpoint,
			AccessKey: rc.S3AccessKey,
			SecretKey: rc.S3SecretKey,
			Prefix:    rc.S3Prefix,
		})
	case "dir":
		return report.DirStore{Root: rc.Dir}, nil
	default:
		return nil, nil
	}
}

func (a *app) close() {
	a.broker.Close()
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			log.WithError(err).Warn("nats drain")
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) scheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.loc, 30*time.Minute, a.metrics)
	slot := func(sl reminder.Slot) scheduler.RunFunc {
		return func(ctx context.Context, at time.Time) error {
			rep, err := a.reminders.RunSlot(ctx, sl, at)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"slot": rep.Slot, "evaluated": rep.Evaluated, "paid": rep.Paid,
				"sent": rep.Sent, "failed": rep.Failed,
			}).Info("reminder sweep done")
			return nil
		}
	}
	jobs := []struct {
		name, at string
		run      scheduler.RunFunc
	}{
		{jobMorning, a.cfg.Reminder.MorningAt, slot(reminder.SlotMorning)},
		{jobMidday, a.cfg.Reminder.MiddayAt, slot(reminder.SlotMidday)},
		{jobAfternoon, a.cfg.Reminder.AfternoonAt, slot(reminder.SlotAfternoon)},
		{jobReport, a.cfg.Report.DailyAt, func(ctx context.Context, at time.Time) error {
			if a.cfg.Report.Store == "none" {
				return nil
			}
			// runs just after midnight, so report the day that just ended
			_, err := a.collections.PublishDailyReport(ctx, at.AddDate(0, 0, -1))
			return err
		}},
	}
	for _, j := range jobs {
		if err := s.Add(j.name, j.at, j.run); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func jobCmd(ctx context.Context, cfg *config.Config, name string) error {
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()
	s, err := a.scheduler()
	if err != nil {
		return err
	}
	return s.Run(ctx, name)
}

func (a *app) echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), middleware.RequestLog(), middleware.Metrics(a.metrics))

	health := httpadp.NewHandler().
		WithCheck("db", func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	if a.rdb != nil {
		health.WithCheck("redis", func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() })
	}
	if a.nc != nil {
		health.WithCheck("nats", func(context.Context) error {
			if !a.nc.IsConnected() {
				return errors.New(a.nc.Status().String())
			}
			return nil
		})
	}

	var idem echo.MiddlewareFunc
	if a.rdb != nil {
		idem = middleware.Idempotency(a.rdb, a.cfg.IdempotencyTTL())
	}

	httpadp.Routes{
		Health:      health,
		Loans:       httpadp.NewLoanHandler(a.loans),
		Approvals:   httpadp.NewApprovalHandler(a.approvals),
		Payments:    httpadp.NewPaymentHandler(a.payments),
		Collections: httpadp.NewCollectionHandler(a.collections),
		Profile:     httpadp.NewProfileHandler(a.profiles),
		Session:     httpadp.NewSessionHandler(a.jwt),
		Stream:      httpadp.NewStreamHandler(a.broker),
		Auth:        a.jwt,
		Idempotent:  idem,
		Metrics:     a.metrics.Handler(),
	}.Register(e)
	return e
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.scheduler()
	if err != nil {
		return err
	}
	stopJobs := s.Start(ctx)
	defer stopJobs()

	e := a.echo()
	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// close websocket streams first so Shutdown does not wait on them
	a.broker.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
