package service

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/cache"
	"github.com/evyataryagoni/ipinfobot/internal/ipinfo"
	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/metrics"
	"github.com/evyataryagoni/ipinfobot/internal/models"
	"github.com/go-playground/validator/v10"
)

// LookupService handles business logic for IP lookups
// It sits between the transports (bot, HTTP API) and the ipinfo client
//
// Responsibilities:
//   - Validate input (IP format)
//   - Consult the optional cache
//   - Call the lookup service, at most once per request
//   - Map failures to InvalidAddressError / LookupUnavailableError
type LookupService struct {
	client    ipinfo.Client       // ipinfo.io or a mock
	cache     cache.Cache         // Optional, nil when caching is disabled
	validator *validator.Validate // Validator for input validation
	metrics   *metrics.Metrics    // Optional, can be nil
	logger    *logger.Logger
}

// NewLookupService creates a new lookup service
//
// Parameters:
//   - client: any implementation of the ipinfo.Client interface
//   - c: result cache (optional, can be nil)
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewLookupService(client ipinfo.Client, c cache.Cache, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		client:    client,
		cache:     c,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("LookupService"),
	}
}

// Parse validates raw input and returns the query to send
func (s *LookupService) Parse(raw string) (models.LookupQuery, error) {
	raw = strings.TrimSpace(raw)

	// "ip" is a built-in validation tag that checks for valid IPv4/IPv6
	if err := s.validator.Var(raw, "required,ip"); err != nil {
		return models.LookupQuery{}, &InvalidAddressError{Input: raw}
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return models.LookupQuery{}, &InvalidAddressError{Input: raw}
	}

	return models.LookupQuery{Raw: raw, Addr: addr}, nil
}

// Lookup looks up geolocation information for an IP address
//
// Flow:
//  1. Validate IP format
//  2. Try the cache, if configured
//  3. Query ipinfo.io
//  4. Store the result in the cache
//
// Returns *InvalidAddressError or *LookupUnavailableError on failure
func (s *LookupService) Lookup(ctx context.Context, raw string) (*models.LookupResult, error) {
	query, err := s.Parse(raw)
	if err != nil {
		s.logger.Debug().Str("input", raw).Msg("Invalid IP address format")
		s.countResult("invalid")
		return nil, err
	}

	ip := query.IP()

	if result := s.fromCache(ctx, ip); result != nil {
		s.countResult("success")
		return result, nil
	}

	s.logger.Debug().Str("ip", ip).Msg("Looking up IP address")
	start := time.Now()
	result, err := s.client.Lookup(ctx, ip)
	if s.metrics != nil {
		s.metrics.LookupDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("ip", ip).Msg("Lookup service unavailable")
		s.countResult("unavailable")
		return nil, &LookupUnavailableError{IP: ip, Err: err}
	}

	s.toCache(ctx, ip, result)

	s.logger.Info().
		Str("ip", ip).
		Str("city", result.City).
		Str("country", result.Country).
		Msg("IP lookup successful")
	s.countResult("success")

	return result, nil
}

// fromCache returns a cached result or nil
// Cache failures are logged and treated as misses
func (s *LookupService) fromCache(ctx context.Context, ip string) *models.LookupResult {
	if s.cache == nil {
		return nil
	}

	result, err := s.cache.Get(ctx, ip)
	switch {
	case err == nil:
		s.countCache("hit")
		return result
	case errors.Is(err, cache.ErrCacheMiss):
		s.countCache("miss")
	default:
		s.countCache("error")
		s.logger.Warn().Err(err).Str("ip", ip).Str("cache", s.cache.Name()).Msg("Cache read failed")
	}
	return nil
}

func (s *LookupService) toCache(ctx context.Context, ip string, result *models.LookupResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, ip, result); err != nil {
		s.logger.Warn().Err(err).Str("ip", ip).Str("cache", s.cache.Name()).Msg("Cache write failed")
	}
}

func (s *LookupService) countResult(result string) {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(result).Inc()
	}
}

func (s *LookupService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheResults.WithLabelValues(s.cache.Name(), result).Inc()
	}
}

// Close cleans up resources
// This will close the underlying cache (database connections, etc.)
func (s *LookupService) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
