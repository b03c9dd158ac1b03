// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	RPCCallLatency   *prometheus.HistogramVec
	RPCCallErrors    *prometheus.CounterVec
	RateLimitRetries prometheus.Counter
	PriceLookups     *prometheus.CounterVec

	// Pipeline metrics
	SignaturesSeen        *prometheus.CounterVec
	TransactionsProcessed *prometheus.CounterVec
	TransactionsSkipped   *prometheus.CounterVec
	TradesApplied         *prometheus.CounterVec
	LedgerSize            *prometheus.GaugeVec
	WindowDuration        *prometheus.HistogramVec
	WindowsCompleted      prometheus.Counter
	SnapshotsEmitted      prometheus.Counter

	// Archive metrics
	ReportRowsStored *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_top_traders"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_errors_total",
			Help:      "Total number of failed provider calls by method",
		}, []string{"method"}),
		RateLimitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "rate_limit_retries_total",
			Help:      "Total number of backoff retries after rate-limit responses",
		}),
		PriceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "lookups_total",
			Help:      "Spot price lookups by source (cache, oracle)",
		}, []string{"source"}),

		SignaturesSeen: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "signatures_seen_total",
			Help:      "Total number of signatures returned by pagination",
		}, []string{"period"}),
		TransactionsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions fetched and classified",
		}, []string{"period"}),
		TransactionsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_skipped_total",
			Help:      "Total number of transactions skipped by reason",
		}, []string{"period", "reason"}),
		TradesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_applied_total",
			Help:      "Total number of trade transactions folded into the ledger",
		}, []string{"period"}),
		LedgerSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "ledger_wallets",
			Help:      "Number of wallets in the current window ledger",
		}, []string{"period"}),
		WindowDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "window_duration_seconds",
			Help:      "Window processing duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"period"}),
		WindowsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "windows_completed_total",
			Help:      "Total number of windows fully processed",
		}),
		SnapshotsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "snapshots_emitted_total",
			Help:      "Total number of intermediate ranking snapshots",
		}),

		ReportRowsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "report_rows_stored_total",
			Help:      "Total number of ranked trader rows archived by backend",
		}, []string{"backend"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last completed run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records provider call latency.
func RecordRPCLatency(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordRateLimitRetry increments the backoff retry counter.
func RecordRateLimitRetry() {
	DefaultMetrics.RateLimitRetries.Inc()
}

// RecordPriceLookup records where a spot price came from.
func RecordPriceLookup(source string) {
	DefaultMetrics.PriceLookups.WithLabelValues(source).Inc()
}

// RecordSignatures adds paginated signatures for a period.
func RecordSignatures(period string, n int) {
	DefaultMetrics.SignaturesSeen.WithLabelValues(period).Add(float64(n))
}

// RecordTransactionProcessed increments the processed counter.
func RecordTransactionProcessed(period string) {
	DefaultMetrics.TransactionsProcessed.WithLabelValues(period).Inc()
}

// RecordTransactionSkipped increments the skip counter for a reason.
func RecordTransactionSkipped(period, reason string) {
	DefaultMetrics.TransactionsSkipped.WithLabelValues(period, reason).Inc()
}

// RecordTradeApplied increments the applied trades counter and updates ledger size.
func RecordTradeApplied(period string, ledgerSize int) {
	DefaultMetrics.TradesApplied.WithLabelValues(period).Inc()
	DefaultMetrics.LedgerSize.WithLabelValues(period).Set(float64(ledgerSize))
}

// RecordSnapshot increments the snapshot counter.
func RecordSnapshot() {
	DefaultMetrics.SnapshotsEmitted.Inc()
}

// RecordWindowCompleted records a finished window.
func RecordWindowCompleted(period string, durationSeconds float64) {
	DefaultMetrics.WindowsCompleted.Inc()
	DefaultMetrics.WindowDuration.WithLabelValues(period).Observe(durationSeconds)
}

// RecordReportRows records archived rows for a backend.
func RecordReportRows(backend string, n int) {
	DefaultMetrics.ReportRowsStored.WithLabelValues(backend).Add(float64(n))
}

// RecordRunCompleted stamps the last successful run time.
func RecordRunCompleted(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
