package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/timebank/internal/domain"
)

// Recalculation outcomes used as metric labels.
const (
	RecalcSuccess = "success"
	RecalcFailure = "failure"
	RecalcSkipped = "skipped"
)

// Metrics owns a private Prometheus registry so tests can build as many as they like.
type Metrics struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrors     *prometheus.CounterVec
	ledgerEvents   *prometheus.CounterVec
	recalcRuns     *prometheus.CounterVec
	recalcDuration prometheus.Histogram
	recalcStudents prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Requests answered with an error envelope, by error code.",
		}, []string{"method", "path", "code"}),
		ledgerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Ledger events appended, by type.",
		}, []string{"type"}),
		recalcRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balance_recalculation_runs_total",
			Help: "Balance recalculation runs, by result.",
		}, []string{"result"}),
		recalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "balance_recalculation_duration_seconds",
			Help:    "Wall time of successful balance recalculation runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		recalcStudents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "balance_recalculation_students",
			Help: "Student aggregates rewritten by the last successful run.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.httpErrors,
		m.ledgerEvents,
		m.recalcRuns,
		m.recalcDuration,
		m.recalcStudents,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordLedgerEvent counts an appended event.
func (m *Metrics) RecordLedgerEvent(t domain.EventType) {
	if m == nil {
		return
	}
	m.ledgerEvents.WithLabelValues(string(t)).Inc()
}

// RecordRecalculation records one run of the balance recalculation job.
func (m *Metrics) RecordRecalculation(result string, duration time.Duration, students int) {
	if m == nil {
		return
	}
	m.recalcRuns.WithLabelValues(result).Inc()
	if result == RecalcSuccess {
		m.recalcDuration.Observe(duration.Seconds())
		m.recalcStudents.Set(float64(students))
	}
}
