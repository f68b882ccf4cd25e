package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/evyataryagoni/ipinfobot/internal/limiter"
	"github.com/evyataryagoni/ipinfobot/internal/models"
)

// RateLimitedMessage is the body of a 429 response
const RateLimitedMessage = "Too many requests, please slow down."

// RateLimitMiddleware enforces rate limiting per client IP (returns 429 when exceeded)
func RateLimitMiddleware(lim limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow(r.Context(), ClientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: RateLimitedMessage})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client address used as the rate limit key
// Priority: X-Real-IP > first X-Forwarded-For entry > RemoteAddr
// The port is stripped from RemoteAddr so that one client maps to one key
func ClientIP(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	// X-Forwarded-For can contain multiple IPs (format: "client, proxy1, proxy2")
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
