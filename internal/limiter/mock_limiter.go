package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double for the Limiter interface
// It allows tests to control allow/deny behavior and verify interactions
type MockLimiter struct {
	mu sync.Mutex

	// Control behavior
	AllowResult bool // Returned from every Allow call

	// Track method calls for verification in tests
	AllowCalls  []string // Keys Allow() was called with
	CloseCalled bool     // Whether Close() was called

	// Control error scenarios
	CloseError error // Error to return from Close(), if any
}

// NewMockLimiter creates a mock limiter with specified allow behavior
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		AllowCalls:  []string{},
	}
}

// Allow implements the Limiter interface
func (m *MockLimiter) Allow(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllowCalls = append(m.AllowCalls, key)
	return m.AllowResult
}

// SetAllow changes the result of later Allow calls
func (m *MockLimiter) SetAllow(allow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllowResult = allow
}

// Calls returns a copy of the recorded keys
func (m *MockLimiter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.AllowCalls...)
}

// Close implements the Limiter interface
func (m *MockLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return m.CloseError
}
