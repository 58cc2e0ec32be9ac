package dto

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// RegisterCustomerRequest payload for POST /api/users.
type RegisterCustomerRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// SendMessageRequest payload for POST /api/messages.
type SendMessageRequest struct {
	UserID      string `json:"user_id"`
	SenderType  string `json:"sender_type"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
}

// CustomerResponse describes a customer.
type CustomerResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// MessageResponse describes a stored message.
type MessageResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	SenderType  string    `json:"sender_type"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// CustomerSummaryResponse is one row of the admin customer list.
type CustomerSummaryResponse struct {
	CustomerResponse
	MessageCount int              `json:"message_count"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
}

// NewCustomerResponse maps a domain customer.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		UserID:    c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		LastSeen:  c.LastSeen,
	}
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		UserID:      m.CustomerID,
		SenderType:  string(m.Sender),
		MessageType: string(m.ContentKind),
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

// NewMessageList maps a conversation.
func NewMessageList(msgs []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessageResponse(&msgs[i]))
	}
	return out
}

// NewCustomerSummaryList maps the admin customer list.
func NewCustomerSummaryList(list []domain.CustomerSummary) []CustomerSummaryResponse {
	out := make([]CustomerSummaryResponse, 0, len(list))
	for i := range list {
		row := CustomerSummaryResponse{
			CustomerResponse: NewCustomerResponse(&list[i].Customer),
			MessageCount:     list[i].MessageCount,
		}
		if list[i].LastMessage != nil {
			last := NewMessageResponse(list[i].LastMessage)
			row.LastMessage = &last
		}
		out = append(out, row)
	}
	return out
}
