package v1

import (
	"github.com/evyataryagoni/ipinfobot/internal/handler"
	"github.com/evyataryagoni/ipinfobot/internal/limiter"
	"github.com/evyataryagoni/ipinfobot/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all v1 API routes
// This function is called by the main router to setup /v1/* endpoints
//
// Parameters:
//   - lookupHandler: the IP lookup handler
//   - rateLimiter: per-client limiter, nil disables limiting
func SetupRoutes(lookupHandler *handler.LookupHandler, rateLimiter limiter.Limiter) chi.Router {
	r := chi.NewRouter()

	if rateLimiter != nil {
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	// GET /v1/lookup?ip=<ip>
	r.Get("/lookup", lookupHandler.Lookup)

	return r
}
