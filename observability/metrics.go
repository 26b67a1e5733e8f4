package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generalizes coreengine/observability/metrics.go's per-RPC counter/
// histogram pair family from gRPC methods to (service, op, status)
// triples covering both the ejb and naming services.

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beanwire_requests_total",
			Help: "Total protocol requests handled or issued.",
		},
		[]string{"service", "op", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beanwire_request_duration_seconds",
			Help:    "Request duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"service", "op"},
	)

	discoveryCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beanwire_discovery_cache_modules",
			Help: "Number of module identifiers currently cached per provider.",
		},
		[]string{"provider"},
	)

	discoveryRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beanwire_discovery_refreshes_total",
			Help: "Total discovery cache refresh attempts.",
		},
		[]string{"provider", "outcome"}, // outcome: ok, interrupted
	)

	retryBlockedDestinations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beanwire_retry_blocklisted_destinations",
			Help: "Number of destinations currently block-listed by the retry loop.",
		},
		[]string{"operation"},
	)

	cancellationTableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beanwire_server_cancellation_table_size",
			Help: "Number of invocations currently tracked in the server cancellation table.",
		},
	)
)

// RecordRequest records a completed request/response exchange.
func RecordRequest(service, op, status string, durationSeconds float64) {
	requestsTotal.WithLabelValues(service, op, status).Inc()
	requestDurationSeconds.WithLabelValues(service, op).Observe(durationSeconds)
}

// SetDiscoveryCacheSize reports the current module count for a provider.
func SetDiscoveryCacheSize(provider string, size int) {
	discoveryCacheSize.WithLabelValues(provider).Set(float64(size))
}

// RecordDiscoveryRefresh records the outcome of one cache refresh.
func RecordDiscoveryRefresh(provider, outcome string) {
	discoveryRefreshesTotal.WithLabelValues(provider, outcome).Inc()
}

// SetBlockedDestinations reports the current block-list size for an operation.
func SetBlockedDestinations(operation string, n int) {
	retryBlockedDestinations.WithLabelValues(operation).Set(float64(n))
}

// SetCancellationTableSize reports the current server cancellation-table size.
func SetCancellationTableSize(n int) {
	cancellationTableSize.Set(float64(n))
}
