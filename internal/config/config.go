package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// TokenEnv is the environment variable holding the Telegram bot token
const TokenEnv = "IPINFOIO_TELEGRAM_API_TOKEN"

// DefaultConfigPath is where config.json is looked up when CONFIG_PATH is unset
const DefaultConfigPath = "config.json"

// Config holds all application configuration
type Config struct {
	// Telegram; the token is checked by ValidateBot
	APIToken      string
	UpdateMode    string `validate:"oneof=polling webhook"` // "polling" or "webhook"
	PollTimeout   int    `validate:"min=0"`                 // long poll timeout in seconds
	WebhookURL    string `validate:"omitempty,url"`
	WebhookSecret string
	Workers       int `validate:"min=1"` // max concurrently handled updates

	// Lookup service
	IPInfoBaseURL string `validate:"required,url"`
	IPInfoToken   string
	LookupTimeout int `validate:"min=1"` // per-request timeout in seconds

	// Logging
	Debug     bool
	LogPretty bool

	// Ops HTTP server
	Port string `validate:"required"`

	// Rate limiting
	RateLimitType   string `validate:"oneof=none memory redis"`
	RateLimit       int    `validate:"min=1"` // number of lookups allowed per chat
	RateLimitWindow int    `validate:"min=1"` // time window in seconds

	// Result cache
	CacheType string `validate:"oneof=none memory redis mysql"`
	CacheTTL  int    `validate:"min=1"` // seconds

	// MySQL configuration
	MySQLDSN string `validate:"required_if=CacheType mysql"`

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

var (
	// ErrMissingToken is returned when the bot has no Telegram token
	ErrMissingToken = errors.New(TokenEnv + " is required")

	// ErrMissingWebhookURL is returned when webhook mode has no public URL
	ErrMissingWebhookURL = errors.New("WEBHOOK_URL is required when UPDATE_MODE is webhook")
)

// Load reads configuration from the environment and config.json
// A .env file is loaded into the environment first, if present
func Load() (*Config, error) {
	// In production/Docker, environment variables are set directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables, config.json or defaults")
	}

	return LoadFile(getEnv("CONFIG_PATH", DefaultConfigPath))
}

// LoadFile builds the configuration using path as the config.json file
// Environment variables take precedence over values from the file
func LoadFile(path string) (*Config, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIToken:      getEnv(TokenEnv, file.GetString("api_token")),
		UpdateMode:    getEnv("UPDATE_MODE", file.GetString("update_mode")),
		PollTimeout:   getEnvAsInt("POLL_TIMEOUT", file.GetInt("poll_timeout")),
		WebhookURL:    getEnv("WEBHOOK_URL", file.GetString("webhook_url")),
		WebhookSecret: getEnv("WEBHOOK_SECRET", file.GetString("webhook_secret")),
		Workers:       getEnvAsInt("WORKERS", file.GetInt("workers")),

		IPInfoBaseURL: getEnv("IPINFO_BASE_URL", file.GetString("ipinfo_base_url")),
		IPInfoToken:   getEnv("IPINFO_TOKEN", file.GetString("ipinfo_token")),
		LookupTimeout: getEnvAsInt("LOOKUP_TIMEOUT", file.GetInt("lookup_timeout")),

		Debug:     getEnvAsBool("DEBUG", file.GetBool("debug")),
		LogPretty: getEnvAsBool("LOG_PRETTY", file.GetBool("log_pretty")),

		Port: getEnv("PORT", file.GetString("port")),

		RateLimitType:   getEnv("RATE_LIMITER_TYPE", file.GetString("rate_limiter_type")),
		RateLimit:       getEnvAsInt("RATE_LIMIT", file.GetInt("rate_limit")),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", file.GetInt("rate_limit_window")),

		CacheType: getEnv("CACHE_TYPE", file.GetString("cache_type")),
		CacheTTL:  getEnvAsInt("CACHE_TTL", file.GetInt("cache_ttl")),

		MySQLDSN: getEnv("MYSQL_DSN", file.GetString("mysql_dsn")),

		RedisAddr:     getEnv("REDIS_ADDR", file.GetString("redis_addr")),
		RedisPassword: getEnv("REDIS_PASSWORD", file.GetString("redis_password")),
		RedisDB:       getEnvAsInt("REDIS_DB", file.GetInt("redis_db")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags
// Settings that only the bot needs are checked by ValidateBot
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateBot checks the settings needed to talk to Telegram
func (c *Config) ValidateBot() error {
	if c.APIToken == "" {
		return ErrMissingToken
	}
	if c.UpdateMode == "webhook" && c.WebhookURL == "" {
		return ErrMissingWebhookURL
	}
	return nil
}

// LogLevel maps the debug flag to a logger level
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return "info"
}

// readFile loads config.json through viper on top of the defaults
// A missing file is fine: the token may come from the environment
func readFile(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("update_mode", "polling")
	v.SetDefault("poll_timeout", 60)
	v.SetDefault("workers", 16)

	v.SetDefault("ipinfo_base_url", "https://ipinfo.io")
	v.SetDefault("lookup_timeout", 5)

	v.SetDefault("debug", false)
	v.SetDefault("log_pretty", true)

	v.SetDefault("port", "3000")

	// Off unless enabled; when on, 5 lookups per 10 seconds per chat
	v.SetDefault("rate_limiter_type", "none")
	v.SetDefault("rate_limit", 5)
	v.SetDefault("rate_limit_window", 10)

	v.SetDefault("cache_type", "none")
	v.SetDefault("cache_ttl", 3600)

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a boolean
// Returns default if not set or invalid
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
