package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/models"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces cache entries in a shared Redis
const keyPrefix = "ipinfo:"

// RedisCache implements Cache using Redis with per-key TTL
// Suitable for multi-instance deployments sharing one cache
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number
//   - ttl: expiry applied to every entry
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get implements the Cache interface
//
// Redis Key Format: ipinfo:<ip_address>
// Value: JSON-encoded LookupResult
func (c *RedisCache) Get(ctx context.Context, ip string) (*models.LookupResult, error) {
	val, err := c.client.Get(ctx, keyPrefix+ip).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result models.LookupResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}

	return &result, nil
}

// Set implements the Cache interface
func (c *RedisCache) Set(ctx context.Context, ip string, result *models.LookupResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+ip, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// Name implements the Cache interface
func (c *RedisCache) Name() string { return "redis" }

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
