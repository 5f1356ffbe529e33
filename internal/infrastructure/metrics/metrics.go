// Package metrics owns the service's prometheus collectors. All methods are
// safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finapp"

type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	payments       *prometheus.CounterVec
	txConflicts    prometheus.Counter
	loanTransition *prometheus.CounterVec
	reminders      *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_recorded_total",
			Help: "Payments recorded by status.",
		}, []string{"status"}),
		txConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tx_conflicts_total",
			Help: "Loan transactions that lost a race and were retried or surfaced.",
		}),
		loanTransition: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "loan_transitions_total",
			Help: "Loan status transitions by target status.",
		}, []string{"status"}),
		reminders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reminders_sent_total",
			Help: "Reminders dispatched by slot and severity.",
		}, []string{"slot", "severity"}),
		notifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notification_failures_total",
			Help: "Notifications that could not be delivered, by type.",
		}, []string{"type"}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "job_runs_total",
			Help: "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) PaymentRecorded(status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(status).Inc()
}

func (m *Metrics) TxConflict() {
	if m == nil {
		return
	}
	m.txConflicts.Inc()
}

func (m *Metrics) LoanTransition(status string) {
	if m == nil {
		return
	}
	m.loanTransition.WithLabelValues(status).Inc()
}

func (m *Metrics) ReminderSent(slot, severity string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(slot, severity).Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) JobRun(job string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}
