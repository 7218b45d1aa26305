// Package metrics defines the Prometheus instruments docsql exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Statement outcomes for the status label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Row cache outcomes for the result label.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics groups the docsql collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Statements        *prometheus.CounterVec
	StatementDuration *prometheus.HistogramVec
	CacheRequests     *prometheus.CounterVec
	RowsWritten       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Statements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docsql_statements_total",
			Help: "SQL statements executed, by statement kind and outcome.",
		}, []string{"kind", "status"}),
		StatementDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsql_statement_duration_seconds",
			Help:    "Statement execution latency, by statement kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docsql_row_cache_requests_total",
			Help: "Row cache lookups, by hit or miss.",
		}, []string{"result"}),
		RowsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docsql_rows_written_total",
			Help: "Rows inserted, updated or deleted, by statement kind.",
		}, []string{"kind"}),
	}
}

// ObserveStatement records one executed statement.
func (m *Metrics) ObserveStatement(kind string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.Statements.WithLabelValues(kind, status).Inc()
	m.StatementDuration.WithLabelValues(kind).Observe(seconds)
}

// ObserveCache records a row cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// AddRowsWritten records n rows written by a statement of the given kind.
func (m *Metrics) AddRowsWritten(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsWritten.WithLabelValues(kind).Add(float64(n))
}
