package limiter

import (
	"fmt"
	"strings"
	"time"
)

// LimiterConfig holds configuration for creating a rate limiter
type LimiterConfig struct {
	Type   string        // "none", "memory" or "redis"
	Limit  int           // Requests allowed per key within Window
	Window time.Duration // Window length

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewLimiter creates a rate limiter based on the configuration (factory pattern)
// Returns a nil Limiter for type "none": callers must treat nil as unlimited
func NewLimiter(cfg LimiterConfig) (Limiter, error) {
	limiterType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch limiterType {
	case "none", "":
		return nil, nil

	case "memory":
		// Good for a single bot instance
		return NewMemoryLimiter(cfg.Limit, cfg.Window), nil

	case "redis":
		// Shared across bot instances
		limiter, err := NewRedisLimiter(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cfg.Limit,
			cfg.Window,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return limiter, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'none', 'memory', 'redis')", cfg.Type)
	}
}
