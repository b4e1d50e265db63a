package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the service's Prometheus collectors.
type Metrics struct {
	ReversalsTotal        *prometheus.CounterVec
	ReversalDuration      prometheus.Histogram
	AdjusterFailures      *prometheus.CounterVec
	ReconciliationRepairs prometheus.Counter
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ReversalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reversals_total",
			Help:      "Reversal attempts by outcome.",
		}, []string{"outcome"}),
		ReversalDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "reversal_duration_seconds",
			Help:      "End-to-end reversal latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		AdjusterFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "adjuster_failures_total",
			Help:      "Ledger adjustments that failed during a reversal.",
		}, []string{"ledger"}),
		ReconciliationRepairs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reconciliation_repairs_total",
			Help:      "Half-committed reversals repaired by the sweep.",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Reversal outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomePartial         = "partial"
	OutcomeAlreadyReversed = "already_reversed"
	OutcomeNotReversible   = "not_reversible"
	OutcomeNotFound        = "not_found"
	OutcomeInProgress      = "in_progress"
	OutcomeError           = "error"
)

func (m *Metrics) ObserveReversal(outcome string, duration time.Duration) {
	m.ReversalsTotal.WithLabelValues(outcome).Inc()
	m.ReversalDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveAdjusterFailure(ledger string) {
	m.AdjusterFailures.WithLabelValues(ledger).Inc()
}
