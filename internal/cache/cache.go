package cache

import (
	"context"
	"errors"

	"github.com/evyataryagoni/ipinfobot/internal/models"
)

// ErrCacheMiss is returned by Get when no fresh entry exists
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for storing lookup results
// Allows multiple implementations (memory, MySQL, Redis)
type Cache interface {
	// Get returns a previously stored result or ErrCacheMiss
	Get(ctx context.Context, ip string) (*models.LookupResult, error)

	// Set stores a result until the cache TTL elapses
	Set(ctx context.Context, ip string, result *models.LookupResult) error

	// Name identifies the backend in logs and metrics
	Name() string

	// Close cleans up resources (database connections, etc.)
	Close() error
}
