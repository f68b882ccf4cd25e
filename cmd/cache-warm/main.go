package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/cache"
	"github.com/evyataryagoni/ipinfobot/internal/config"
	"github.com/evyataryagoni/ipinfobot/internal/ipinfo"
	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/service"
	"github.com/evyataryagoni/ipinfobot/internal/warmup"
	"github.com/spf13/cobra"
)

// This tool looks up every address of a CSV file through the configured cache
// Usage: go run ./cmd/cache-warm ips.csv
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(runWarmup).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// warmFunc performs a warm-up of path with the given concurrency
type warmFunc func(ctx context.Context, path string, workers int) (warmup.Stats, error)

func newRootCmd(warm warmFunc) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "cache-warm <file.csv>",
		Short: "Pre-populate the lookup cache from a CSV list of IP addresses",
		Long: "Reads the first column of every row after the header and looks each " +
			"address up through ipinfo.io, storing results in the cache selected by CACHE_TYPE.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := warm(cmd.Context(), args[0], workers)
			fmt.Fprintf(cmd.OutOrStdout(), "Looked up %d addresses: %d resolved, %d invalid, %d failed\n",
				stats.Total, stats.Succeeded, stats.Invalid, stats.Failed)
			return err
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent lookups")

	return cmd
}

// runWarmup wires the configured cache and ipinfo client together
// No Telegram token is needed: the tool never talks to Telegram
// Cache write failures are logged by the service and still count as resolved
func runWarmup(ctx context.Context, path string, workers int) (warmup.Stats, error) {
	appConfig, err := config.Load()
	if err != nil {
		return warmup.Stats{}, err
	}

	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel(),
		Pretty: appConfig.LogPretty,
	}).WithComponent("CacheWarm")

	resultCache, err := cache.NewCache(cache.Config{
		Type:          appConfig.CacheType,
		TTL:           time.Duration(appConfig.CacheTTL) * time.Second,
		MySQLDSN:      appConfig.MySQLDSN,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	})
	if err != nil {
		return warmup.Stats{}, err
	}
	if resultCache == nil {
		return warmup.Stats{}, fmt.Errorf("CACHE_TYPE is %q, nothing to warm", appConfig.CacheType)
	}

	client := ipinfo.NewHTTPClient(ipinfo.Config{
		BaseURL: appConfig.IPInfoBaseURL,
		Token:   appConfig.IPInfoToken,
		Timeout: time.Duration(appConfig.LookupTimeout) * time.Second,
	})
	lookupService := service.NewLookupService(client, resultCache, nil, appLogger)
	defer lookupService.Close()

	ips, err := warmup.ReadFile(path)
	if err != nil {
		return warmup.Stats{}, err
	}

	appLogger.Info().Int("addresses", len(ips)).Str("cache", resultCache.Name()).Msg("Warming cache")
	return warmup.Warm(ctx, lookupService, ips, workers, appLogger)
}
