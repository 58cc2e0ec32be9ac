package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when a notification cannot be queued without blocking.
var ErrQueueFull = errors.New("relay: queue full")

// Kind labels a notification for logging.
type Kind string

const (
	KindOTP         Kind = "otp"
	KindNewCustomer Kind = "new_customer"
	KindNewMessage  Kind = "new_message"
)

// Notification is a single out-of-band message to the operator.
type Notification struct {
	Kind Kind
	Text string
	// Sensitive text is delivered but never written to logs.
	Sensitive bool
}

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier stands in when no Telegram credentials are configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier that only logs.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	fields := []zap.Field{zap.String("kind", string(n.Kind))}
	if !n.Sensitive {
		fields = append(fields, zap.String("text", n.Text))
	}
	l.logger.Info("relay notification (telegram disabled)", fields...)
	return nil
}
