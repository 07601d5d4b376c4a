// Package metrics exposes Prometheus instruments for ingest, query and HTTP
// paths. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds every instrument of the service.
type Metrics struct {
	IngestBatches     *prometheus.CounterVec
	IngestRows        *prometheus.CounterVec
	IngestDropped     *prometheus.CounterVec
	IngestFailures    *prometheus.CounterVec
	EncodingFallbacks *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	Resolutions       *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IngestBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_ingest_batches_total",
			Help: "Batches written by the ingest pipeline",
		}, []string{"table"}),
		IngestRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_ingest_rows_total",
			Help: "Rows written by the ingest pipeline",
		}, []string{"table"}),
		IngestDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_ingest_rows_dropped_total",
			Help: "Source rows filtered out during normalisation",
		}, []string{"table", "reason"}),
		IngestFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_ingest_failures_total",
			Help: "Ingest runs that aborted",
		}, []string{"table"}),
		EncodingFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_ingest_encoding_fallbacks_total",
			Help: "Ingest runs restarted under a fallback encoding",
		}, []string{"table", "encoding"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "itbi_query_duration_seconds",
			Help:    "Duration of transaction searches",
			Buckets: durationBuckets,
		}, []string{"path"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_cache_lookups_total",
			Help: "Dataset cache lookups by outcome",
		}, []string{"dataset", "outcome"}),
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "itbi_address_resolutions_total",
			Help: "Address resolver outcomes",
		}, []string{"outcome"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "itbi_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: durationBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// BatchWritten records one committed ingest batch.
func (m *Metrics) BatchWritten(table string, rows int) {
	if m == nil {
		return
	}
	m.IngestBatches.WithLabelValues(table).Inc()
	m.IngestRows.WithLabelValues(table).Add(float64(rows))
}

// RowsDropped records rows removed by normalisation.
func (m *Metrics) RowsDropped(table, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.IngestDropped.WithLabelValues(table, reason).Add(float64(n))
}

// IngestFailed records an aborted run.
func (m *Metrics) IngestFailed(table string) {
	if m == nil {
		return
	}
	m.IngestFailures.WithLabelValues(table).Inc()
}

// EncodingFallback records a restart under encoding.
func (m *Metrics) EncodingFallback(table, encoding string) {
	if m == nil {
		return
	}
	m.EncodingFallbacks.WithLabelValues(table, encoding).Inc()
}

// ObserveQuery records a search duration. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveQuery(path string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

// CacheLookup records a hit or miss.
func (m *Metrics) CacheLookup(dataset string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(dataset, outcome).Inc()
}

// Resolution records a resolver outcome: found, not_found or unavailable.
func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records a request duration.
func (m *Metrics) ObserveHTTP(route, method, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, method, status).Observe(time.Since(start).Seconds())
}
