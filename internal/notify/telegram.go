package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram posts notifications to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram connects to the Bot API. endpoint may be empty for the public
// API; otherwise it is a format string like tgbotapi.APIEndpoint.
func NewTelegram(token string, chatID int64, endpoint string, client *http.Client, log *slog.Logger) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	log.Info("telegram bot ready", "username", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

// Notify implements Notifier.
func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	msgs := FormatMessage(n)
	for i, text := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, len(msgs), err)
		}
	}
	t.log.Info("telegram notification sent", "profile", n.ProfileName, "jobs", len(n.Jobs), "messages", len(msgs))
	return nil
}
