package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger_indexer"

// Outcome labels for reconciliation checks
const (
	OutcomeOwned    = "owned"
	OutcomeNotOwned = "not_owned"
	OutcomeError    = "error"
)

// Metrics holds the prometheus collectors shared by the ingestion and reconciliation loops.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsProcessed *prometheus.CounterVec
	ProcessingErrors      prometheus.Counter
	ProcessingRetries     prometheus.Counter
	CurrentlyProcessing   prometheus.Gauge
	CacheSize             prometheus.Gauge
	LastProcessedAt       prometheus.Gauge
	ProcessingDuration    prometheus.Histogram

	ReconciliationChecks   *prometheus.CounterVec
	ReconciliationRuns     prometheus.Counter
	ReconciliationSkipped  prometheus.Counter
	ReconciliationDuration prometheus.Histogram

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		TransactionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_processed_total",
			Help:      "Transactions committed by the ingestion coordinator, by stored event kind",
		}, []string{"kind"}),
		ProcessingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_errors_total",
			Help:      "Transactions that failed after exhausting retries or with a permanent error",
		}),
		ProcessingRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_retries_total",
			Help:      "Retry attempts made while processing transactions",
		}),
		CurrentlyProcessing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "currently_processing",
			Help:      "Transactions currently in flight",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processed_cache_size",
			Help:      "Entries in the processed signature cache",
		}),
		LastProcessedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_timestamp_seconds",
			Help:      "Unix time of the last committed transaction",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time to fetch, decode and store one transaction including retries",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		ReconciliationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_checks_total",
			Help:      "Ownership checks made by the reconciliation sweep, by outcome",
		}, []string{"outcome"}),
		ReconciliationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Completed reconciliation sweeps",
		}),
		ReconciliationSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_skipped_total",
			Help:      "Scheduled sweeps skipped because a sweep was still running",
		}),
		ReconciliationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_duration_seconds",
			Help:      "Duration of reconciliation sweeps",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Read API requests by route template, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Read API latency by route template",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	registry.MustRegister(
		m.TransactionsProcessed,
		m.ProcessingErrors,
		m.ProcessingRetries,
		m.CurrentlyProcessing,
		m.CacheSize,
		m.LastProcessedAt,
		m.ProcessingDuration,
		m.ReconciliationChecks,
		m.ReconciliationRuns,
		m.ReconciliationSkipped,
		m.ReconciliationDuration,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncProcessed(kind string) {
	if m == nil {
		return
	}
	m.TransactionsProcessed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.ProcessingErrors.Inc()
}

func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.ProcessingRetries.Inc()
}

func (m *Metrics) SetProcessing(n int) {
	if m == nil {
		return
	}
	m.CurrentlyProcessing.Set(float64(n))
}

func (m *Metrics) SetCacheSize(n int) {
	if m == nil {
		return
	}
	m.CacheSize.Set(float64(n))
}

func (m *Metrics) SetLastProcessedAt(unix int64) {
	if m == nil {
		return
	}
	m.LastProcessedAt.Set(float64(unix))
}

func (m *Metrics) ObserveProcessing(seconds float64) {
	if m == nil {
		return
	}
	m.ProcessingDuration.Observe(seconds)
}

func (m *Metrics) AddReconciliationChecks(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReconciliationChecks.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ObserveReconciliation(seconds float64) {
	if m == nil {
		return
	}
	m.ReconciliationRuns.Inc()
	m.ReconciliationDuration.Observe(seconds)
}

func (m *Metrics) IncReconciliationSkipped() {
	if m == nil {
		return
	}
	m.ReconciliationSkipped.Inc()
}

// ObserveHTTPRequest records one API request. route must be a template such as
// /api/v1/nfts/:mint, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(route string, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}
