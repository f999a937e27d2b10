// internal/telegram/telegram.go

// Package telegram adapts the Telegram Bot API to the bot.Transport
// interface. It long-polls for updates, retrying failures with
// exponential backoff for as long as the context lives, and converts
// incoming messages into the transport-neutral form the dispatcher
// consumes.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"indodax-bot/internal/bot"
)

const (
	pollTimeout   = 30 // seconds, long-poll window
	updateBacklog = 64
)

// api is the slice of tgbotapi.BotAPI the transport needs.
type api interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Transport is the Telegram implementation of bot.Transport.
type Transport struct {
	api        api
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// New authenticates against the Telegram API with the given token.
func New(token string, logger *zap.Logger) (*Transport, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	logger = logger.Named("telegram")
	logger.Info("Authenticated", zap.String("username", botAPI.Self.UserName))
	return &Transport{
		api:        botAPI,
		logger:     logger,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

// Updates starts a long-poll loop and streams incoming text messages.
// The loop outlives any outage: fetches retry until the context is
// cancelled, and only cancellation closes the channel.
func (t *Transport) Updates(ctx context.Context) <-chan bot.Message {
	out := make(chan bot.Message, updateBacklog)
	go t.poll(ctx, out)
	return out
}

func (t *Transport) poll(ctx context.Context, out chan<- bot.Message) {
	defer close(out)

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := t.fetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error("Update fetch failed", zap.Error(err))
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if upd.Message == nil || upd.Message.Text == "" || upd.Message.From == nil {
				continue
			}
			msg := bot.Message{
				ChatID:    upd.Message.Chat.ID,
				MessageID: upd.Message.MessageID,
				UserID:    upd.Message.From.ID,
				FirstName: upd.Message.From.FirstName,
				Text:      upd.Message.Text,
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// fetchUpdates wraps one GetUpdates call in retries so a flaky network
// or a Telegram outage, however long, does not kill the poll loop.
// Only context cancellation makes it return an error.
func (t *Transport) fetchUpdates(ctx context.Context, offset int) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = pollTimeout

	operation := func() ([]tgbotapi.Update, error) {
		return t.api.GetUpdates(cfg)
	}
	notify := func(err error, duration time.Duration) {
		t.logger.Warn("Update fetch failed, retrying",
			zap.Error(err), zap.Duration("backoff", duration))
	}

	// An elapsed-time cap of 0 removes the default limit: the retry
	// loop must outlast any outage.
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(t.newBackOff()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
}

// Send delivers a markdown message, attaching the reply keyboard when
// one is given.
func (t *Transport) Send(chatID int64, text string, keyboard bot.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = replyKeyboard(keyboard)
	}

	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// Delete removes a message. Telegram refuses deletes on old messages;
// callers treat that as best effort.
func (t *Transport) Delete(chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	if err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func replyKeyboard(kb bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb))
	for _, captions := range kb {
		row := make([]tgbotapi.KeyboardButton, 0, len(captions))
		for _, caption := range captions {
			row = append(row, tgbotapi.NewKeyboardButton(caption))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
