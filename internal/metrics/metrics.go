package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics (ops server)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Bot Metrics
	UpdatesTotal  *prometheus.CounterVec
	CommandsTotal *prometheus.CounterVec
	SendErrors    prometheus.Counter

	// Lookup Metrics
	LookupsTotal   *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	CacheResults   *prometheus.CounterVec
}

// New creates all metrics and registers them on reg
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_updates_total",
				Help: "Total number of Telegram updates received",
			},
			[]string{"source"},
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_total",
				Help: "Total number of bot commands handled",
			},
			[]string{"command"},
		),

		SendErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_send_errors_total",
				Help: "Total number of failed Telegram sends",
			},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ip_lookups_total",
				Help: "Total number of IP lookups",
			},
			[]string{"result"},
		),

		LookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ip_lookup_duration_seconds",
				Help:    "Latency of calls to the lookup service in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		CacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookup_cache_results_total",
				Help: "Total number of cache hits vs misses",
			},
			[]string{"cache", "result"},
		),
	}
}
