package cache

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for creating a cache
type Config struct {
	Type string        // "none", "memory", "redis" or "mysql"
	TTL  time.Duration // How long a result stays fresh

	// MySQL-specific config
	MySQLDSN string

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewCache creates a cache based on the configuration (factory pattern)
// Returns a nil Cache for type "none": callers must treat nil as disabled
func NewCache(cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "none", "":
		return nil, nil

	case "memory":
		return NewMemoryCache(cfg.TTL), nil

	case "redis":
		c, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		return c, nil

	case "mysql":
		c, err := NewMySQLCache(cfg.MySQLDSN, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL cache: %w", err)
		}
		if err := c.Migrate(); err != nil {
			c.Close()
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown cache type: %s (supported: 'none', 'memory', 'redis', 'mysql')", cfg.Type)
	}
}
