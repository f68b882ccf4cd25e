package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/bot"
	"github.com/evyataryagoni/ipinfobot/internal/cache"
	"github.com/evyataryagoni/ipinfobot/internal/config"
	"github.com/evyataryagoni/ipinfobot/internal/handler"
	"github.com/evyataryagoni/ipinfobot/internal/ipinfo"
	"github.com/evyataryagoni/ipinfobot/internal/limiter"
	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/metrics"
	"github.com/evyataryagoni/ipinfobot/internal/router"
	"github.com/evyataryagoni/ipinfobot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// shutdownSignals stop the bot gracefully
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err == nil {
		err = appConfig.ValidateBot()
	}
	if err != nil {
		logger.NewDefault().Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize components
	appLogger := setupLogger(appConfig)
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	resultCache := setupCache(appConfig, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	if rateLimiter != nil {
		defer rateLimiter.Close()
	}

	// Build application layers
	client := ipinfo.NewHTTPClient(ipinfo.Config{
		BaseURL: appConfig.IPInfoBaseURL,
		Token:   appConfig.IPInfoToken,
		Timeout: time.Duration(appConfig.LookupTimeout) * time.Second,
	})
	lookupService := service.NewLookupService(client, resultCache, metricsCollector, appLogger)
	defer lookupService.Close()

	api, err := tgbotapi.NewBotAPI(appConfig.APIToken)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	api.Debug = appConfig.Debug
	appLogger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	telegramBot := bot.New(bot.Config{
		API:      api,
		Service:  lookupService,
		Limiter:  rateLimiter,
		Metrics:  metricsCollector,
		Logger:   appLogger,
		UserName: api.Self.UserName,
	})

	opts := router.Options{
		LookupHandler: handler.NewLookupHandler(lookupService),
		RateLimiter:   rateLimiter,
		Metrics:       metricsCollector,
		Logger:        appLogger,
	}
	if appConfig.UpdateMode == "webhook" {
		opts.Webhook = telegramBot.WebhookHandler(appConfig.WebhookSecret)
	}
	appRouter := router.SetupRouter(opts)

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := run(ctx, appConfig, telegramBot, appRouter, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("Bot stopped")
	}
	appLogger.Info().Msg("Bye")
}

// run serves the ops HTTP server and receives updates until ctx is cancelled
func run(ctx context.Context, appConfig *config.Config, telegramBot *bot.Bot, appRouter http.Handler, log *logger.Logger) error {
	if appConfig.UpdateMode == "webhook" {
		if err := telegramBot.RegisterWebhook(appConfig.WebhookURL, appConfig.WebhookSecret); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", appConfig.Port).
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/lookup?ip=<ip>").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutdown signal received")

		// Shutdown waits for in-flight webhook deliveries
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if appConfig.UpdateMode != "webhook" {
		g.Go(func() error {
			return telegramBot.Poll(gctx, appConfig.PollTimeout, appConfig.Workers)
		})
	}

	return g.Wait()
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel(),
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting ipinfo bot...")
	appLogger.Info().
		Str("update_mode", appConfig.UpdateMode).
		Int("workers", appConfig.Workers).
		Str("port", appConfig.Port).
		Str("ipinfo_base_url", appConfig.IPInfoBaseURL).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("cache_type", appConfig.CacheType).
		Msg("Configuration loaded")

	return appLogger
}

// setupCache initializes the optional result cache
// Supports memory, Redis and MySQL backends; "none" disables caching
func setupCache(appConfig *config.Config, log *logger.Logger) cache.Cache {
	resultCache, err := cache.NewCache(cache.Config{
		Type:          appConfig.CacheType,
		TTL:           time.Duration(appConfig.CacheTTL) * time.Second,
		MySQLDSN:      appConfig.MySQLDSN,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("type", appConfig.CacheType).Msg("Failed to initialize cache")
	}

	if resultCache == nil {
		log.Info().Msg("Result cache disabled")
		return nil
	}
	log.Info().Str("type", resultCache.Name()).Int("ttl_seconds", appConfig.CacheTTL).Msg("Result cache initialized")
	return resultCache
}

// setupRateLimiter initializes the optional per-chat rate limiter
// Supports in-memory and Redis-based rate limiting; "none" disables it
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:          appConfig.RateLimitType,
		Limit:         appConfig.RateLimit,
		Window:        time.Duration(appConfig.RateLimitWindow) * time.Second,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	if rateLimiter == nil {
		log.Info().Msg("Rate limiting disabled")
		return nil
	}
	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Int("window_seconds", appConfig.RateLimitWindow).
		Msg("Rate limiter initialized")

	return rateLimiter
}
