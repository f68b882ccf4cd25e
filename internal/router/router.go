package router

import (
	"net/http"

	"github.com/evyataryagoni/ipinfobot/internal/handler"
	"github.com/evyataryagoni/ipinfobot/internal/limiter"
	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/metrics"
	custommiddleware "github.com/evyataryagoni/ipinfobot/internal/middleware"
	v1 "github.com/evyataryagoni/ipinfobot/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath is where Telegram delivers updates in webhook mode
const WebhookPath = "/telegram"

// Options holds everything the ops router serves
type Options struct {
	LookupHandler *handler.LookupHandler
	RateLimiter   limiter.Limiter     // Applied to /v1 only
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer // Defaults to prometheus.DefaultGatherer
	Webhook       http.Handler        // Optional, mounted at WebhookPath when set
	Logger        *logger.Logger
}

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Routes:
//   - GET  /health
//   - GET  /metrics
//   - GET  /v1/lookup?ip=<ip>
//   - POST /telegram (webhook mode)
func SetupRouter(opts Options) chi.Router {
	r := chi.NewRouter()

	// Order matters! RequestID should be first, then logging
	r.Use(middleware.RequestID)                            // Add unique request ID to each request
	r.Use(middleware.RealIP)                               // Get real client IP (handles proxies/load balancers)
	r.Use(custommiddleware.LoggingMiddleware(opts.Logger)) // Structured logging
	r.Use(middleware.Recoverer)                            // Recover from panics and return 500
	if opts.Metrics != nil {
		r.Use(custommiddleware.MetricsMiddleware(opts.Metrics))
	}

	// Mount v1 API routes under /v1 prefix
	r.Mount("/v1", v1.SetupRoutes(opts.LookupHandler, opts.RateLimiter))

	// Health check endpoint - used by load balancers and monitoring
	r.Get("/health", healthCheckHandler)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if opts.Webhook != nil {
		r.Post(WebhookPath, opts.Webhook.ServeHTTP)
	}

	return r
}

// healthCheckHandler returns 200 OK while the process is running
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
