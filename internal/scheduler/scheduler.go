// Package scheduler runs named jobs once a day at a local wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finapp-backend/internal/infrastructure/metrics"

	log "github.com/sirupsen/logrus"
)

// RunFunc receives the instant the job was due.
type RunFunc func(ctx context.Context, at time.Time) error

type job struct {
	name         string
	hour, minute int
	run          RunFunc
}

type Scheduler struct {
	loc     *time.Location
	timeout time.Duration
	metrics *metrics.Metrics
	jobs    []job

	now func() time.Time
}

// New schedules in loc. Each run gets its own context bounded by timeout.
func New(loc *time.Location, timeout time.Duration, m *metrics.Metrics) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{loc: loc, timeout: timeout, metrics: m, now: time.Now}
}

// Add registers run under name at "HH:MM" local time.
func (s *Scheduler) Add(name, at string, run RunFunc) error {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("job %s: invalid time %q (want HH:MM)", name, at)
	}
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("job %s already registered", name)
		}
	}
	s.jobs = append(s.jobs, job{name: name, hour: t.Hour(), minute: t.Minute(), run: run})
	return nil
}

func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.name)
	}
	return out
}

// nextRun is the first hh:mm in loc strictly after now.
func nextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Start launches one goroutine per job. The returned stop func ends the
// loops and waits for in-flight runs; cancelling ctx does the same without
// waiting.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup

	for _, j := range s.jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			for {
				next := nextRun(s.now(), j.hour, j.minute, s.loc)
				wait := next.Sub(s.now())
				log.WithFields(log.Fields{"job": j.name, "next_run": next.Format(time.RFC3339)}).Debug("job scheduled")

				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-stopCh:
					timer.Stop()
					return
				case <-timer.C:
					s.runOnce(ctx, j, next)
				}
			}
		}(j)
	}
	log.WithField("jobs", s.Jobs()).Info("scheduler started")

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			wg.Wait()
			log.Info("scheduler stopped")
		})
	}
}

// Run executes the named job immediately, e.g. from an admin command.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	for _, j := range s.jobs {
		if j.name == name {
			return s.runOnce(ctx, j, s.now().In(s.loc))
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) runOnce(parent context.Context, j job, at time.Time) (err error) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}
	entry := log.WithFields(log.Fields{"job": j.name, "due": at.Format(time.RFC3339)})
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
		s.metrics.JobRun(j.name, err == nil)
		if err != nil {
			entry.WithError(err).Error("job failed")
			return
		}
		entry.WithField("took", time.Since(start).String()).Info("job finished")
	}()

	return j.run(ctx, at)
}
