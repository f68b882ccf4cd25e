// Package bot turns Telegram updates into IP lookups and replies.
package bot

import (
	"context"
	"strconv"

	"github.com/evyataryagoni/ipinfobot/internal/limiter"
	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/metrics"
	"github.com/evyataryagoni/ipinfobot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of *tgbotapi.BotAPI the bot uses
// Tests replace it with a fake that records outgoing messages
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Lookuper validates and resolves a raw address into a lookup result
// Implemented by *service.LookupService
type Lookuper interface {
	Parse(raw string) (models.LookupQuery, error)
	Lookup(ctx context.Context, raw string) (*models.LookupResult, error)
}

// Config holds the collaborators of a Bot
type Config struct {
	API      API
	Service  Lookuper
	Limiter  limiter.Limiter  // Optional, per-chat budget for valid lookups
	Metrics  *metrics.Metrics // Optional
	Logger   *logger.Logger   // Optional
	UserName string           // Bot username, used to recognise /cmd@UserName
}

// Bot dispatches chat messages to command handlers
// A Bot holds no per-chat state, so HandleUpdate is safe for concurrent use
type Bot struct {
	api      API
	service  Lookuper
	limiter  limiter.Limiter
	metrics  *metrics.Metrics
	logger   *logger.Logger
	userName string
}

// New creates a bot from cfg
func New(cfg Config) *Bot {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault()
	}
	return &Bot{
		api:      cfg.API,
		service:  cfg.Service,
		limiter:  cfg.Limiter,
		metrics:  cfg.Metrics,
		logger:   log.WithComponent("Bot"),
		userName: cfg.UserName,
	}
}

// allow consumes one lookup from the chat's budget
func (b *Bot) allow(ctx context.Context, chatID int64) bool {
	if b.limiter == nil {
		return true
	}
	return b.limiter.Allow(ctx, strconv.FormatInt(chatID, 10))
}

// send delivers c, logging and counting failures
// Send errors never propagate: the update is considered handled
func (b *Bot) send(log *logger.Logger, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Error().Err(err).Msg("Failed to send reply")
		if b.metrics != nil {
			b.metrics.SendErrors.Inc()
		}
	}
}

func (b *Bot) countUpdate(source string) {
	if b.metrics != nil {
		b.metrics.UpdatesTotal.WithLabelValues(source).Inc()
	}
}

func (b *Bot) countCommand(command string) {
	if b.metrics != nil {
		b.metrics.CommandsTotal.WithLabelValues(command).Inc()
	}
}

func (b *Bot) countLookup(result string) {
	if b.metrics != nil {
		b.metrics.LookupsTotal.WithLabelValues(result).Inc()
	}
}
