package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var envKeys = []string{
	TokenEnv, "UPDATE_MODE", "POLL_TIMEOUT", "WEBHOOK_URL", "WEBHOOK_SECRET", "WORKERS",
	"IPINFO_BASE_URL", "IPINFO_TOKEN", "LOOKUP_TIMEOUT", "DEBUG", "LOG_PRETTY", "PORT",
	"RATE_LIMITER_TYPE", "RATE_LIMIT", "RATE_LIMIT_WINDOW", "CACHE_TYPE", "CACHE_TTL",
	"MYSQL_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CONFIG_PATH",
}

// clearEnv blanks every variable the loader reads
// getEnv treats an empty value the same as an unset one
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestLoadFile_TokenFromFile tests reading the token from config.json
func TestLoadFile_TokenFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"api_token": "file-token", "debug": true}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIToken != "file-token" {
		t.Errorf("expected token 'file-token', got '%s'", cfg.APIToken)
	}
	if !cfg.Debug {
		t.Error("expected debug to be read from file")
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel())
	}
}

// TestLoadFile_EnvOverridesFile tests that the environment wins over the file
func TestLoadFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"api_token": "file-token", "port": "8080"}`)
	t.Setenv(TokenEnv, "env-token")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIToken != "env-token" {
		t.Errorf("expected token 'env-token', got '%s'", cfg.APIToken)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port '9090', got '%s'", cfg.Port)
	}
}

// TestLoadFile_MissingFile tests that the env var alone is enough
func TestLoadFile_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(TokenEnv, "env-token")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIToken != "env-token" {
		t.Errorf("expected token 'env-token', got '%s'", cfg.APIToken)
	}
}

// TestLoadFile_Defaults tests default values
func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(TokenEnv, "token")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"update mode", cfg.UpdateMode, "polling"},
		{"poll timeout", cfg.PollTimeout, 60},
		{"workers", cfg.Workers, 16},
		{"base url", cfg.IPInfoBaseURL, "https://ipinfo.io"},
		{"lookup timeout", cfg.LookupTimeout, 5},
		{"port", cfg.Port, "3000"},
		{"rate limiter", cfg.RateLimitType, "none"},
		{"rate limit", cfg.RateLimit, 5},
		{"rate limit window", cfg.RateLimitWindow, 10},
		{"cache type", cfg.CacheType, "none"},
		{"cache ttl", cfg.CacheTTL, 3600},
		{"redis addr", cfg.RedisAddr, "localhost:6379"},
		{"debug", cfg.Debug, false},
		{"log pretty", cfg.LogPretty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

// TestLoadFile_MissingToken tests that only the bot requires a token
func TestLoadFile_MissingToken(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("expected config without a token to load, got %v", err)
	}
	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	t.Setenv(TokenEnv, "token")
	cfg, err = LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("unexpected bot validation error: %v", err)
	}
}

// TestLoadFile_InvalidJSON tests a malformed config file
func TestLoadFile_InvalidJSON(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"api_token": `)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

// TestLoadFile_InvalidValues tests validation of enumerations and bounds
func TestLoadFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown update mode", "UPDATE_MODE", "carrier-pigeon"},
		{"unknown cache", "CACHE_TYPE", "memcached"},
		{"unknown limiter", "RATE_LIMITER_TYPE", "token"},
		{"bad webhook url", "WEBHOOK_URL", "not a url"},
		{"zero workers", "WORKERS", "0"},
		{"mysql cache without dsn", "CACHE_TYPE", "mysql"},
		{"bad base url", "IPINFO_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(TokenEnv, "token")
			t.Setenv(tt.key, tt.val)

			if _, err := LoadFile(""); err == nil {
				t.Errorf("expected validation error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

// TestValidateBot_WebhookRequiresURL tests webhook mode validation
func TestValidateBot_WebhookRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv(TokenEnv, "token")
	t.Setenv("UPDATE_MODE", "webhook")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingWebhookURL) {
		t.Fatalf("expected ErrMissingWebhookURL, got %v", err)
	}

	t.Setenv("WEBHOOK_URL", "https://bot.example.com/telegram")
	cfg, err = LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("unexpected bot validation error: %v", err)
	}
	if cfg.WebhookURL != "https://bot.example.com/telegram" {
		t.Errorf("unexpected webhook url: %s", cfg.WebhookURL)
	}
}

// TestGetEnvAsInt_Invalid tests fallback on unparsable values
func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("SOME_INT", "ten")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}

	t.Setenv("SOME_BOOL", "maybe")
	if got := getEnvAsBool("SOME_BOOL", true); !got {
		t.Error("expected default true")
	}
}
