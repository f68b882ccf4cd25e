package ipinfo

import (
	"context"
	"sync"

	"github.com/evyataryagoni/ipinfobot/internal/models"
)

// MockClient is a test double for the Client interface
// It allows tests to control behavior and verify interactions
type MockClient struct {
	mu sync.Mutex

	// Results holds the mock responses (IP address -> result)
	// Unknown addresses get a result with only the IP set
	Results map[string]*models.LookupResult

	// Err is returned from every Lookup when set
	Err error

	// Calls records the IP of every Lookup in order
	Calls []string
}

// NewMockClient creates a mock client with sample test data
func NewMockClient() *MockClient {
	return &MockClient{
		Results: map[string]*models.LookupResult{
			"8.8.8.8": {
				IP:       "8.8.8.8",
				Hostname: "dns.google",
				City:     "Mountain View",
				Region:   "California",
				Country:  "US",
				Loc:      "37.4056,-122.0775",
				Org:      "AS15169 Google LLC",
				Postal:   "94043",
				Timezone: "America/Los_Angeles",
			},
			"1.1.1.1": {
				IP:       "1.1.1.1",
				Hostname: "one.one.one.one",
				City:     "Brisbane",
				Region:   "Queensland",
				Country:  "AU",
				Loc:      "-27.4816,153.0175",
				Org:      "AS13335 Cloudflare, Inc.",
			},
			"10.0.0.1": {
				IP:    "10.0.0.1",
				Bogon: true,
			},
		},
	}
}

// Lookup implements the Client interface
func (m *MockClient) Lookup(ctx context.Context, ip string) (*models.LookupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, ip)

	if m.Err != nil {
		return nil, m.Err
	}

	if result, ok := m.Results[ip]; ok {
		copied := *result
		return &copied, nil
	}
	return &models.LookupResult{IP: ip}, nil
}

// CallCount returns how many lookups were made
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
