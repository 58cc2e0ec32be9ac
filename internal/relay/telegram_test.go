package relay

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-chat/internal/config"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestTelegramDeliversQueuedNotifications(t *testing.T) {
	bot := &fakeSender{}
	tg := newTelegram(bot, config.TelegramConfig{AdminChatID: 42, QueueSize: 4}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = tg.Run(ctx)
		close(done)
	}()

	require.NoError(t, tg.Notify(ctx, Notification{Kind: KindNewCustomer, Text: "hello"}))
	require.NoError(t, tg.Notify(ctx, Notification{Kind: KindNewMessage, Text: strings.Repeat("x", maxTelegramMessage+10)}))

	assert.Eventually(t, func() bool { return bot.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "hello", bot.sent[0].Text)
	assert.Len(t, bot.sent[1].Text, maxTelegramMessage)
	assert.Len(t, bot.sent[2].Text, 10)
}

func TestTelegramQueueFull(t *testing.T) {
	tg := newTelegram(&fakeSender{}, config.TelegramConfig{QueueSize: 1}, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, tg.Notify(ctx, Notification{Text: "a"}))
	assert.ErrorIs(t, tg.Notify(ctx, Notification{Text: "b"}), ErrQueueFull)
}

func TestSplitMessageKeepsRunes(t *testing.T) {
	text := strings.Repeat("ş", maxTelegramMessage)
	parts := splitMessage(text)
	require.Len(t, parts, 2)
	assert.Equal(t, text, parts[0]+parts[1])
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), maxTelegramMessage)
		assert.True(t, strings.HasPrefix(p, "ş"))
	}
}

func TestLogNotifierHidesSensitiveText(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), Notification{Kind: KindOTP, Text: "code 123456", Sensitive: true}))
	require.NoError(t, n.Notify(context.Background(), Notification{Kind: KindNewCustomer, Text: "Ada joined"}))

	entries := logs.All()
	require.Len(t, entries, 2)
	_, hasText := entries[0].ContextMap()["text"]
	assert.False(t, hasText)
	assert.Equal(t, "Ada joined", entries[1].ContextMap()["text"])
}
