// Package ipinfo is a small client for the ipinfo.io geolocation API.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/models"
)

// DefaultBaseURL is the public ipinfo.io endpoint
const DefaultBaseURL = "https://ipinfo.io"

// maxBodySize caps how much of a response body is decoded
const maxBodySize = 1 << 20

// Client defines the interface for IP geolocation lookups
// Allows the HTTP implementation to be swapped for MockClient in tests
type Client interface {
	// Lookup fetches geolocation data for a single canonical IP address
	Lookup(ctx context.Context, ip string) (*models.LookupResult, error)
}

// StatusError is returned when ipinfo.io answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ipinfo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the HTTP client
type Config struct {
	BaseURL   string        // Defaults to DefaultBaseURL
	Token     string        // Optional ipinfo.io access token
	Timeout   time.Duration // Per-request timeout, defaults to 5 seconds
	UserAgent string
	HTTP      *http.Client // Optional, overrides Timeout when set
}

// HTTPClient implements Client over the ipinfo.io REST API
type HTTPClient struct {
	baseURL   string
	token     string
	userAgent string
	httpc     *http.Client
}

// NewHTTPClient creates a new ipinfo.io client
func NewHTTPClient(cfg Config) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		httpc:     cfg.HTTP,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = "ipinfobot"
	}
	if c.httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		c.httpc = &http.Client{Timeout: timeout}
	}
	return c
}

// Lookup performs GET {base}/{ip}/json
func (c *HTTPClient) Lookup(ctx context.Context, ip string) (*models.LookupResult, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(ip) + "/json"
	if c.token != "" {
		endpoint += "?" + url.Values{"token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ipinfo: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipinfo: request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodySize)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var result models.LookupResult
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ipinfo: decoding response: %w", err)
	}

	// Bogon responses carry only ip and bogon
	if result.IP == "" {
		result.IP = ip
	}

	return &result, nil
}
