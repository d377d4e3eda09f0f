package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPResponseSize      prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Publish pipeline metrics
	PublishJobsTotal       prometheus.CounterVec
	PublishDuration        prometheus.HistogramVec
	PublishRateLimitWait   prometheus.HistogramVec
	PublishBreakerState    prometheus.GaugeVec
	PublishQueueDepth      prometheus.Gauge
	PublishLeasesRecovered prometheus.Counter
	TokenRefreshTotal      prometheus.CounterVec

	// Realtime metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			PublishJobsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "publish_jobs_total",
					Help: "Publish attempts by platform and outcome",
				},
				[]string{"platform", "outcome"},
			),
			PublishDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "publish_duration_seconds",
					Help:    "Time spent in a platform publish call",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
				},
				[]string{"platform"},
			),
			PublishRateLimitWait: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "publish_rate_limit_wait_seconds",
					Help:    "Time a publish waited on the platform rate limiter",
					Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"platform"},
			),
			PublishBreakerState: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "publish_breaker_state",
					Help: "Circuit breaker state per platform (0 closed, 1 half-open, 2 open)",
				},
				[]string{"platform"},
			),
			PublishQueueDepth: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "publish_queue_depth",
					Help: "Jobs waiting in the in-process publish queue",
				},
			),
			PublishLeasesRecovered: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "publish_leases_recovered_total",
					Help: "Running jobs whose lease expired and were requeued",
				},
			),
			TokenRefreshTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "token_refresh_total",
					Help: "OAuth token refreshes by platform and status",
				},
				[]string{"platform", "status"},
			),

			WebSocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Open websocket connections",
				},
			),
			WebSocketMessages: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "websocket_messages_total",
					Help: "Websocket messages by direction and type",
				},
				[]string{"direction", "type"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
