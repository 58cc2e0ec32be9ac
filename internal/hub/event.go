package hub

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// EventKind identifies what a stream frame carries.
type EventKind string

const (
	KindMessage EventKind = "message"
	KindPing    EventKind = "ping"
)

// Payload is the message body of a KindMessage event.
type Payload struct {
	ID          int64              `json:"id"`
	RecipientID string             `json:"user_id"`
	Sender      domain.SenderRole  `json:"sender_type"`
	ContentKind domain.ContentKind `json:"message_type"`
	Content     string             `json:"content"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Event is an immutable record delivered to listeners. Payload fields are
// inlined when encoded so a message frame reads as a flat object.
type Event struct {
	Kind EventKind `json:"type"`
	*Payload
}

// Ping returns the keepalive event emitted when a drain times out.
func Ping() Event {
	return Event{Kind: KindPing}
}

// MessageEvent wraps a stored message for delivery.
func MessageEvent(msg *domain.Message) Event {
	return Event{
		Kind: KindMessage,
		Payload: &Payload{
			ID:          msg.ID,
			RecipientID: msg.CustomerID,
			Sender:      msg.Sender,
			ContentKind: msg.ContentKind,
			Content:     msg.Content,
			CreatedAt:   msg.CreatedAt,
		},
	}
}
