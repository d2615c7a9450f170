package notify

import (
	"context"
	"fmt"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"

	domservice "PairScout/internal/domain/service"
	"PairScout/pkg/logger"
)

// Telegram pushes cycle summaries to a chat. The bot is created once and
// reused; Notify never blocks a cycle on delivery problems beyond the send
// itself.
type Telegram struct {
	bot  *tb.Bot
	chat *tb.Chat
	log  *logger.Logger
}

func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	bot, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{
		bot:  bot,
		chat: &tb.Chat{ID: chatID},
		log:  log,
	}, nil
}

var _ domservice.Notifier = (*Telegram)(nil)

func (t *Telegram) Notify(ctx context.Context, message string) error {
	if _, err := t.bot.Send(t.chat, message); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Noop is the notifier used when Telegram is disabled; pushes are logged
// at debug level instead.
type Noop struct {
	log *logger.Logger
}

func NewNoop(log *logger.Logger) *Noop { return &Noop{log: log} }

var _ domservice.Notifier = (*Noop)(nil)

func (n *Noop) Notify(ctx context.Context, message string) error {
	n.log.Debug("notification suppressed", logger.String("message", message))
	return nil
}
