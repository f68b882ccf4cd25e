package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter and arms its expiry on first use
// Runs atomically on the Redis server
var allowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisLimiter implements distributed rate limiting using Redis
// Every bot instance sharing the Redis server shares the per-chat budget
//
// Algorithm: fixed window counter
//   - Key format: "ratelimit:{key}:{window number}"
//   - INCR + EXPIRE in a Lua script
//   - Keys expire after two windows
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number
//   - limit: requests allowed per key within each window
//   - window: window length
func NewRedisLimiter(addr, password string, db int, limit int, window time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return newRedisLimiter(client, limit, window), nil
}

func newRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit < 1 {
		limit = 1
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow implements the Limiter interface
// On Redis errors the request is allowed (fail open)
func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	windowSeconds := int64(rl.window.Seconds())
	window := rl.now().Unix() / windowSeconds
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	count, err := allowScript.Run(ctx, rl.client, []string{redisKey}, windowSeconds*2).Int64()
	if err != nil {
		return true
	}

	return count <= rl.limit
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
