// Package warmup pre-populates the lookup cache from a CSV list of addresses.
package warmup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/models"
	"github.com/evyataryagoni/ipinfobot/internal/service"
	"golang.org/x/sync/errgroup"
)

// Lookuper resolves one address, normally through a cached *service.LookupService
type Lookuper interface {
	Lookup(ctx context.Context, raw string) (*models.LookupResult, error)
}

// Stats summarises a warm-up run
type Stats struct {
	Total     int
	Succeeded int // resolved, even if the cache write then failed
	Invalid   int
	Failed    int
}

// ReadFile reads addresses from a CSV file
func ReadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ReadAddresses(file)
}

// ReadAddresses returns the first column of every row after the header
// Rows may have any number of columns; blank first cells are skipped
//
// CSV Format: ip[,anything...]
// Example: 8.8.8.8,Google DNS
func ReadAddresses(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var ips []string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}

		if header {
			header = false
			continue
		}

		if ip := strings.TrimSpace(record[0]); ip != "" {
			ips = append(ips, ip)
		}
	}

	if header {
		return nil, fmt.Errorf("CSV file is empty")
	}
	return ips, nil
}

// Warm looks up every address with at most workers concurrent lookups
// Individual failures are counted, not returned; only cancellation stops the run
func Warm(ctx context.Context, svc Lookuper, ips []string, workers int, log *logger.Logger) (Stats, error) {
	var succeeded, invalid, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, ip := range ips {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := svc.Lookup(gctx, ip)

			var invalidErr *service.InvalidAddressError
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.As(err, &invalidErr):
				invalid.Add(1)
				log.Warn().Str("ip", ip).Msg("Skipping invalid address")
			default:
				failed.Add(1)
				log.Warn().Err(err).Str("ip", ip).Msg("Lookup failed")
			}
			return nil
		})
	}

	waitErr := g.Wait()

	stats := Stats{
		Total:     len(ips),
		Succeeded: int(succeeded.Load()),
		Invalid:   int(invalid.Load()),
		Failed:    int(failed.Load()),
	}
	if waitErr != nil {
		return stats, waitErr
	}
	return stats, ctx.Err()
}
