// Package observability provides Prometheus metrics and the service logger.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Price path metrics
	PriceLookups      *prometheus.CounterVec // by source (cache/upstream)
	PriceLookupErrors *prometheus.CounterVec // by reason
	UpstreamFetches   prometheus.Counter
	UpstreamLatency   prometheus.Histogram
	CacheStoreErrors  prometheus.Counter
	CoalescedRequests prometheus.Counter

	// Swap pipeline metrics
	SwapsTotal       *prometheus.CounterVec // by status
	SwapFailures     *prometheus.CounterVec // by reason
	SwapStageLatency *prometheus.HistogramVec
	SwapDuration     prometheus.Histogram

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Journal metrics
	JournalWrites      prometheus.Counter
	JournalWriteErrors prometheus.Counter

	// Price feed metrics
	FeedSubscribers prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_service"
	}

	return &Metrics{
		PriceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookups_total",
			Help:      "Total number of price lookups by source",
		}, []string{"source"}),
		PriceLookupErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookup_errors_total",
			Help:      "Total number of failed price lookups by reason",
		}, []string{"reason"}),
		UpstreamFetches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "upstream_fetches_total",
			Help:      "Total number of upstream oracle fetches",
		}),
		UpstreamLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream oracle fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheStoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_store_errors_total",
			Help:      "Total number of cache store failures",
		}),
		CoalescedRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "coalesced_requests_total",
			Help:      "Total number of lookups that shared an in-flight upstream fetch",
		}),

		SwapsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "executions_total",
			Help:      "Total number of swap executions by terminal status",
		}, []string{"status"}),
		SwapFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "failures_total",
			Help:      "Total number of swap failures by reason",
		}, []string{"reason"}),
		SwapStageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "stage_latency_seconds",
			Help:      "Latency of each swap pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		SwapDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "duration_seconds",
			Help:      "End-to-end swap pipeline duration",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_latency_seconds",
			Help:      "Solana RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "Total number of failed Solana RPC calls by method",
		}, []string{"method"}),

		JournalWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "writes_total",
			Help:      "Total number of journal writes",
		}),
		JournalWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "write_errors_total",
			Help:      "Total number of failed journal writes",
		}),

		FeedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of websocket price feed subscribers",
		}),
	}
}

// DefaultMetrics is the process-wide metrics instance.
var DefaultMetrics = NewMetrics("")

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPriceLookup records a served price lookup tagged with its source.
func RecordPriceLookup(source string) {
	DefaultMetrics.PriceLookups.WithLabelValues(source).Inc()
}

// RecordPriceLookupError records a failed price lookup.
func RecordPriceLookupError(reason string) {
	DefaultMetrics.PriceLookupErrors.WithLabelValues(reason).Inc()
}

// RecordUpstreamFetch records one upstream oracle fetch and its latency.
func RecordUpstreamFetch(seconds float64) {
	DefaultMetrics.UpstreamFetches.Inc()
	DefaultMetrics.UpstreamLatency.Observe(seconds)
}

// RecordCacheStoreError records a cache store failure.
func RecordCacheStoreError() {
	DefaultMetrics.CacheStoreErrors.Inc()
}

// RecordCoalescedRequest records a lookup that piggybacked on an in-flight
// upstream fetch.
func RecordCoalescedRequest() {
	DefaultMetrics.CoalescedRequests.Inc()
}

// RecordSwap records a terminal swap outcome.
func RecordSwap(status string, durationSeconds float64) {
	DefaultMetrics.SwapsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SwapDuration.Observe(durationSeconds)
}

// RecordSwapFailure records a swap failure by taxonomy reason.
func RecordSwapFailure(reason string) {
	DefaultMetrics.SwapFailures.WithLabelValues(reason).Inc()
}

// RecordSwapStage records the latency of one pipeline stage.
func RecordSwapStage(stage string, seconds float64) {
	DefaultMetrics.SwapStageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordRPCCall records the latency and outcome of a Solana RPC call.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordJournalWrite records a journal write attempt.
func RecordJournalWrite(err error) {
	DefaultMetrics.JournalWrites.Inc()
	if err != nil {
		DefaultMetrics.JournalWriteErrors.Inc()
	}
}

// RecordFeedSubscribers sets the current websocket subscriber count.
func RecordFeedSubscribers(n int) {
	DefaultMetrics.FeedSubscribers.Set(float64(n))
}
