package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// Poll long-polls getUpdates until ctx is cancelled
// At most workers updates are handled at once; Poll returns after the
// in-flight handlers finish.
func (b *Bot) Poll(ctx context.Context, timeout, workers int) error {
	// getUpdates is rejected while a webhook is registered
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Int("timeout", timeout).Int("workers", workers).Msg("Polling for updates")

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	// Handlers finish their reply even when shutdown starts mid-lookup
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Stopping updates, waiting for in-flight handlers")
			b.api.StopReceivingUpdates()
			return g.Wait()

		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			b.countUpdate("polling")
			g.Go(func() error {
				b.HandleUpdate(handlerCtx, update)
				return nil
			})
		}
	}
}
