// Package metrics exposes Prometheus instrumentation for the sync, the ledger and HTTP traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "commission"

// Sync run outcomes
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Ledger kinds
const (
	LedgerDue  = "due"
	LedgerPaid = "paid"
)

type Metrics struct {
	registry *prometheus.Registry

	syncRuns      *prometheus.CounterVec
	syncErrors    *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	syncCustomers prometheus.Counter
	computations  *prometheus.CounterVec
	ledgerUpserts *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New creates a registry with the service collectors plus Go and process collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry)
}

// NewWithRegistry registers the service collectors on registry
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Customer sync runs by outcome.",
		}, []string{"outcome"}),
		syncErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_errors_total",
			Help:      "Per-job sync errors by error type and role.",
		}, []string{"type", "role"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of customer sync runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}),
		syncCustomers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_customers_processed_total",
			Help:      "Customers upserted by the sync.",
		}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Commission computations by role.",
		}, []string{"role"}),
		ledgerUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_upserts_total",
			Help:      "Ledger upserts by kind.",
		}, []string{"kind"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduled_job_duration_seconds",
			Help:      "Duration of scheduled jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.syncRuns, m.syncErrors, m.syncDuration, m.syncCustomers,
		m.computations, m.ledgerUpserts, m.jobDuration,
		m.httpRequests, m.httpDurations,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSync records one finished sync run
func (m *Metrics) ObserveSync(outcome string, customers int, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(outcome).Inc()
	m.syncCustomers.Add(float64(customers))
	m.syncDuration.Observe(duration.Seconds())
}

// SyncError counts one per-job error
func (m *Metrics) SyncError(errType, role string) {
	if m == nil {
		return
	}
	if role == "" {
		role = "none"
	}
	m.syncErrors.WithLabelValues(errType, role).Inc()
}

// Computation counts one commission computation
func (m *Metrics) Computation(role string) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(role).Inc()
}

// LedgerUpsert counts one due or paid upsert
func (m *Metrics) LedgerUpsert(kind string) {
	if m == nil {
		return
	}
	m.ledgerUpserts.WithLabelValues(kind).Inc()
}

// ObserveJob records the duration of a scheduled job run
func (m *Metrics) ObserveJob(name string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveHTTP records one served request. route is the chi route pattern.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(duration.Seconds())
}
