package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SecretTokenHeader carries the webhook secret on every Telegram delivery
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// RegisterWebhook points Telegram at webhookURL
// When secret is set Telegram echoes it in SecretTokenHeader
func (b *Bot) RegisterWebhook(webhookURL, secret string) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secret)

	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Info().Str("url", webhookURL).Msg("Webhook registered")
	return nil
}

// WebhookHandler serves Telegram deliveries
// The update is handled before the response is written, so an HTTP
// server shutdown waits for in-flight lookups.
func (b *Bot) WebhookHandler(secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			got := r.Header.Get(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				b.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Webhook secret mismatch")
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
			b.logger.Warn().Err(err).Msg("Malformed webhook update")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		b.countUpdate("webhook")
		b.HandleUpdate(context.WithoutCancel(r.Context()), update)

		w.WriteHeader(http.StatusOK)
	})
}
