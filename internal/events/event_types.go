package events

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCustomerRegistered EventType = "customer_registered"
	EventMessageAdded       EventType = "message_added"
	EventOTPIssued          EventType = "otp_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CustomerID string      `json:"customer_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// CustomerRegisteredPayload payload.
type CustomerRegisteredPayload struct {
	Name string `json:"name"`
}

// MessageAddedPayload payload.
type MessageAddedPayload struct {
	MessageID   int64              `json:"message_id"`
	Sender      domain.SenderRole  `json:"sender_type"`
	ContentKind domain.ContentKind `json:"message_type"`
	Preview     string             `json:"preview"`
}

// OTPIssuedPayload carries the code to the operator relay. The code is never
// serialized.
type OTPIssuedPayload struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
