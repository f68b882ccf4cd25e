package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evyataryagoni/ipinfobot/internal/models"
	"github.com/evyataryagoni/ipinfobot/internal/service"
)

// UnavailableMessage is returned when ipinfo.io cannot be reached
const UnavailableMessage = "Lookup service is unavailable right now, please try again later."

// LookupHandler handles HTTP requests for IP lookups
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse HTTP requests (query parameters)
//   - Call service methods
//   - Format HTTP responses (JSON)
//   - Map typed service errors to status codes
type LookupHandler struct {
	service *service.LookupService
}

// NewLookupHandler creates a new lookup handler with the given service
func NewLookupHandler(service *service.LookupService) *LookupHandler {
	return &LookupHandler{
		service: service,
	}
}

// Lookup handles GET /v1/lookup?ip=<ip>
//
//	200 models.LookupResult
//	400 invalid or missing address
//	503 lookup service unavailable
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")

	result, err := h.service.Lookup(r.Context(), ip)
	if err != nil {
		var invalid *service.InvalidAddressError
		var unavailable *service.LookupUnavailableError

		switch {
		case errors.As(err, &invalid):
			h.respondError(w, http.StatusBadRequest, invalid.Error())
		case errors.As(err, &unavailable):
			h.respondError(w, http.StatusServiceUnavailable, UnavailableMessage)
		default:
			// Don't leak internal details
			h.respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// respondJSON writes a JSON response with the given status code
func (h *LookupHandler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with consistent formatting
func (h *LookupHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
