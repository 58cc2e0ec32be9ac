package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/relay"
)

const previewRunes = 200

// NotificationService forwards domain events to the operator relay.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   relay.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier relay.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCustomerRegistered, n.handleCustomerRegistered)
	n.dispatcher.Subscribe(events.EventMessageAdded, n.handleMessageAdded)
	n.dispatcher.Subscribe(events.EventOTPIssued, n.handleOTPIssued)
}

func (n *NotificationService) handleCustomerRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CustomerRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("CustomerRegistered", zap.String("customer_id", event.CustomerID))
	return n.notifier.Notify(ctx, relay.Notification{
		Kind: relay.KindNewCustomer,
		Text: fmt.Sprintf("New customer: %s\nID: %s", payload.Name, event.CustomerID),
	})
}

func (n *NotificationService) handleMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Debug("MessageAdded",
		zap.String("customer_id", event.CustomerID),
		zap.Int64("message_id", payload.MessageID),
		zap.String("sender_type", string(payload.Sender)))
	if payload.Sender != domain.SenderCustomer {
		return nil
	}

	body := payload.Preview
	if payload.ContentKind.IsMedia() {
		body = fmt.Sprintf("[%s]", payload.ContentKind)
	}
	return n.notifier.Notify(ctx, relay.Notification{
		Kind: relay.KindNewMessage,
		Text: fmt.Sprintf("New message from %s:\n%s", event.CustomerID, body),
	})
}

func (n *NotificationService) handleOTPIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OTPIssuedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	valid := payload.ExpiresAt.Sub(event.Timestamp).Round(time.Minute)
	return n.notifier.Notify(ctx, relay.Notification{
		Kind:      relay.KindOTP,
		Text:      fmt.Sprintf("Admin OTP: %s\nValid for %s", payload.Code, valid),
		Sensitive: true,
	})
}

// preview shortens message text for relay notifications.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}
