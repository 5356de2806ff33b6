// Package metrics provides Prometheus metrics for the Gramps MCP server.
// It tracks tool calls, upstream Gramps API traffic, token refreshes and cache use.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "gramps_mcp"
)

var (
	// RequestsTotal counts MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures tool latency
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Tool call latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing tool calls
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of tool calls currently being processed",
	}, []string{"tool"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total record cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total record cache misses",
	})

	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of cached records",
	})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_evictions_total",
		Help:      "Records evicted by the cache size limit",
	})

	// CacheInvalidations counts entries dropped because a write touched their kind
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_invalidations_total",
		Help:      "Cached records dropped after writes, by kind",
	}, []string{"kind"})

	// GrampsAPILatency measures upstream call latency by endpoint
	GrampsAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "gramps_api_latency_seconds",
		Help:      "Gramps Web API call latency by method and endpoint",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	// GrampsAPIRequestsTotal counts upstream calls by endpoint and status code
	GrampsAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "gramps_api_requests_total",
		Help:      "Total Gramps Web API requests by method, endpoint and status code",
	}, []string{"method", "endpoint", "code"})

	// GrampsAPIRetries counts retried upstream calls
	GrampsAPIRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "gramps_api_retries_total",
		Help:      "Gramps Web API retry count by reason",
	}, []string{"reason"})

	// TokenRefreshes counts token exchanges by outcome
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "token_refreshes_total",
		Help:      "Token exchanges against the Gramps API by outcome",
	}, []string{"outcome"})

	// AuthFailures counts authentication failures
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication failure count by reason",
	}, []string{"reason"})

	// RateLimitRejections counts HTTP requests rejected by the per-IP limiter
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected due to rate limiting",
	})

	// RateLimitWaits counts upstream calls that waited for a concurrency slot
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Upstream calls that waited for the concurrency semaphore",
	})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// HTTPRequestsTotal counts requests on the HTTP transport
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	// HTTPRequestDuration measures HTTP transport latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	// WriteOperations counts create/update tool outcomes by record type
	WriteOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "write_operations_total",
		Help:      "Record writes by type, operation and status",
	}, []string{"type", "operation", "status"})

	// ReportTasks counts report generation outcomes
	ReportTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "report_tasks_total",
		Help:      "Report generations by report id and outcome",
	}, []string{"report", "outcome"})

	// ContentSize tracks sizes of uploaded media and downloaded reports
	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "content_size_bytes",
		Help:      "Content size distribution in bytes",
		Buckets:   []float64{100, 1000, 10000, 50000, 100000, 250000, 500000, 1000000, 10000000},
	}, []string{"operation"})
)

// RecordRequest records a completed tool call with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records one upstream Gramps call. code is the HTTP status, 0 for transport errors.
func RecordAPICall(method, endpoint string, duration float64, code int) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	GrampsAPIRequestsTotal.WithLabelValues(method, endpoint, label).Inc()
	GrampsAPILatency.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordWrite records the outcome of a create or update tool
func RecordWrite(recordType, operation string, success bool) {
	WriteOperations.WithLabelValues(recordType, operation, statusLabel(success)).Inc()
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// SetCacheSize updates the current cache size gauge
func SetCacheSize(size int) {
	CacheSize.Set(float64(size))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
