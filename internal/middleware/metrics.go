package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records HTTP metrics for each request
// Requests are labelled by chi route pattern so path parameters don't explode cardinality
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap the response writer to capture status code and size
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			endpoint := routePattern(r)

			m.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, code).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, endpoint, code).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(r.Method, endpoint, code).Observe(float64(ww.BytesWritten()))
		})
	}
}

// unmatchedRoute labels requests that matched no chi route
const unmatchedRoute = "unmatched"

// routePattern returns the matched chi pattern
// Raw paths are never used as labels: 404 scans would create a series per path
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
