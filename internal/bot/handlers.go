package bot

import (
	"context"
	"errors"

	"github.com/evyataryagoni/ipinfobot/internal/logger"
	"github.com/evyataryagoni/ipinfobot/internal/models"
	"github.com/evyataryagoni/ipinfobot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleUpdate processes one update from any transport
// Updates without a text message are ignored
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	cmd, ok := ParseCommand(msg.Text, b.userName)
	if !ok {
		return
	}

	log := b.logger.WithChat(msg.Chat.ID)
	log.Debug().Str("command", cmd.Name).Str("arg", cmd.Arg).Msg("Handling command")
	b.countCommand(cmd.Name)

	switch cmd.Name {
	case CommandStart:
		b.sendMarkdown(log, msg.Chat.ID, StartMessage)
	case CommandHelp:
		b.sendMarkdown(log, msg.Chat.ID, HelpMessage)
	case CommandPing:
		b.send(log, tgbotapi.NewMessage(msg.Chat.ID, PongMessage))
	case CommandIP:
		b.handleIP(ctx, log, msg, cmd.Arg)
	case CommandGeo:
		b.handleGeo(ctx, log, msg, cmd.Arg)
	}
}

// handleIP replies with the formatted lookup result
func (b *Bot) handleIP(ctx context.Context, log *logger.Logger, msg *tgbotapi.Message, arg string) {
	result, ok := b.lookup(ctx, log, msg, arg)
	if !ok {
		return
	}
	b.sendMarkdown(log, msg.Chat.ID, FormatResult(result))
}

// handleGeo replies with a location pin when coordinates are known
func (b *Bot) handleGeo(ctx context.Context, log *logger.Logger, msg *tgbotapi.Message, arg string) {
	result, ok := b.lookup(ctx, log, msg, arg)
	if !ok {
		return
	}

	lat, lon, known := result.Coordinates()
	if !known {
		b.send(log, tgbotapi.NewMessage(msg.Chat.ID, UnknownLocationMessage))
		return
	}
	b.send(log, tgbotapi.NewLocation(msg.Chat.ID, lat, lon))
}

// lookup validates the address, applies the chat's rate limit and runs the lookup
// Invalid input is answered without touching the budget
// On failure the user has already been answered and ok is false
func (b *Bot) lookup(ctx context.Context, log *logger.Logger, msg *tgbotapi.Message, arg string) (*models.LookupResult, bool) {
	if _, err := b.service.Parse(arg); err != nil {
		b.countLookup("invalid")
		b.replyError(log, msg, err)
		return nil, false
	}

	if !b.allow(ctx, msg.Chat.ID) {
		log.Warn().Msg("Chat rate limited")
		b.countLookup("rate_limited")
		b.send(log, tgbotapi.NewMessage(msg.Chat.ID, RateLimitedMessage))
		return nil, false
	}

	result, err := b.service.Lookup(ctx, arg)
	if err != nil {
		b.replyError(log, msg, err)
		return nil, false
	}
	return result, true
}

// replyError maps a lookup error to the user-facing reply
func (b *Bot) replyError(log *logger.Logger, msg *tgbotapi.Message, err error) {
	var invalid *service.InvalidAddressError
	switch {
	case errors.As(err, &invalid) && invalid.Input == "":
		b.sendMarkdown(log, msg.Chat.ID, EmptyAddressMessage)
	case errors.As(err, &invalid):
		reply := tgbotapi.NewMessage(msg.Chat.ID, InvalidAddressMessage(invalid.Input))
		reply.ReplyToMessageID = msg.MessageID
		b.send(log, reply)
	default:
		log.Warn().Err(err).Msg("Lookup failed")
		b.send(log, tgbotapi.NewMessage(msg.Chat.ID, UnavailableMessage))
	}
}

func (b *Bot) sendMarkdown(log *logger.Logger, chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.DisableWebPagePreview = true
	b.send(log, reply)
}
