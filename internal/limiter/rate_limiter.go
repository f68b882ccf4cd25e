package limiter

import (
	"context"
	"sync"
	"time"
)

// Limiter is the interface that all rate limiters must implement
// Keys are opaque: the bot passes a chat ID, the HTTP API a client IP
type Limiter interface {
	// Allow reports whether one more request for key fits in the budget
	Allow(ctx context.Context, key string) bool

	// Close cleans up any resources (Redis connections, etc.)
	Close() error
}

// TokenBucket represents a token bucket for a single key
// The token bucket algorithm allows bursts while maintaining an average rate
//
// How it works:
//   - Each key has a bucket holding up to `capacity` tokens
//   - Tokens are added continuously at `refillRate` per second
//   - Each request consumes 1 token
//   - If no tokens are available the request is rejected
type TokenBucket struct {
	tokens         float64    // Current number of tokens in the bucket
	capacity       float64    // Maximum number of tokens (burst size)
	refillRate     float64    // Tokens added per second
	lastRefillTime time.Time  // Last time tokens were added
	mu             sync.Mutex // Protects tokens and lastRefillTime
}

// NewTokenBucket creates a full bucket
//
// Parameters:
//   - rate: tokens per second (may be fractional, e.g. 0.5)
//   - capacity: maximum tokens (burst size)
//   - now: creation time
func NewTokenBucket(rate, capacity float64, now time.Time) *TokenBucket {
	capacity = max(capacity, 1.0)
	return &TokenBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     rate,
		lastRefillTime: now,
	}
}

// Allow consumes one token if available
func (tb *TokenBucket) Allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// refill adds tokens based on time elapsed since last refill
// Must be called with mutex locked
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	if elapsed <= 0 {
		return
	}

	// Example: 2 seconds * 0.5 tokens/sec = 1 token
	tb.tokens = min(tb.tokens+elapsed*tb.refillRate, tb.capacity)
	tb.lastRefillTime = now
}

// MemoryLimiter manages token buckets for multiple keys
// Thread-safe using sync.Map, suitable for single-instance deployments
type MemoryLimiter struct {
	buckets     sync.Map // map[string]*TokenBucket
	rate        float64  // Tokens per second
	capacity    float64  // Burst size: `limit` requests
	now         func() time.Time
	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter allows `limit` requests per `window` for each key
// A key that used its whole budget regains one request every window/limit
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &MemoryLimiter{
		rate:        float64(limit) / window.Seconds(),
		capacity:    float64(limit),
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Allow implements the Limiter interface
func (rl *MemoryLimiter) Allow(ctx context.Context, key string) bool {
	now := rl.now()
	allowed := rl.getBucket(key, now).Allow(now)

	// Periodically drop idle buckets
	rl.maybeCleanup(now)

	return allowed
}

// getBucket gets or creates the bucket for key
func (rl *MemoryLimiter) getBucket(key string, now time.Time) *TokenBucket {
	if value, ok := rl.buckets.Load(key); ok {
		return value.(*TokenBucket)
	}

	// LoadOrStore handles two goroutines racing on a new key
	actual, _ := rl.buckets.LoadOrStore(key, NewTokenBucket(rl.rate, rl.capacity, now))
	return actual.(*TokenBucket)
}

// maybeCleanup removes buckets untouched for 5 minutes, at most every 5 minutes
func (rl *MemoryLimiter) maybeCleanup(now time.Time) {
	rl.cleanupMu.Lock()
	defer rl.cleanupMu.Unlock()

	if now.Sub(rl.lastCleanup) < 5*time.Minute {
		return
	}

	threshold := now.Add(-5 * time.Minute)
	rl.buckets.Range(func(key, value any) bool {
		bucket := value.(*TokenBucket)
		bucket.mu.Lock()
		lastAccess := bucket.lastRefillTime
		bucket.mu.Unlock()

		if lastAccess.Before(threshold) {
			rl.buckets.Delete(key)
		}
		return true
	})

	rl.lastCleanup = now
}

// Len returns the number of tracked keys
func (rl *MemoryLimiter) Len() int {
	n := 0
	rl.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close implements the Limiter interface
// The in-memory limiter holds no external resources
func (rl *MemoryLimiter) Close() error {
	return nil
}
