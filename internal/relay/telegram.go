package relay

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/support-chat/internal/config"
)

const maxTelegramMessage = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram queues notifications and delivers them to the admin chat at a
// bounded rate. Run must be started for anything to be sent.
type Telegram struct {
	bot     sender
	chatID  int64
	limiter *rate.Limiter
	queue   chan Notification
	logger  *zap.Logger
}

// NewTelegram connects to the Bot API with the configured token.
func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return newTelegram(bot, cfg, logger), nil
}

func newTelegram(bot sender, cfg config.TelegramConfig, logger *zap.Logger) *Telegram {
	limit := rate.Limit(cfg.MessagesPerSecond)
	if cfg.MessagesPerSecond <= 0 {
		limit = rate.Inf
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	return &Telegram{
		bot:     bot,
		chatID:  cfg.AdminChatID,
		limiter: rate.NewLimiter(limit, 1),
		queue:   make(chan Notification, size),
		logger:  logger,
	}
}

// Notify enqueues n without waiting for delivery.
func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	select {
	case t.queue <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		t.logger.Warn("telegram queue full, dropping notification", zap.String("kind", string(n.Kind)))
		return ErrQueueFull
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-t.queue:
			t.deliver(ctx, n)
		}
	}
}

func (t *Telegram) deliver(ctx context.Context, n Notification) {
	for _, part := range splitMessage(n.Text) {
		if err := t.limiter.Wait(ctx); err != nil {
			return
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, part)); err != nil {
			t.logger.Error("telegram send failed", zap.String("kind", string(n.Kind)), zap.Error(err))
			return
		}
	}
}

// splitMessage cuts text into Telegram-sized chunks on rune boundaries.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end >= len(text) {
			parts = append(parts, text)
			break
		}
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
