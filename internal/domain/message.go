package domain

import "time"

// SenderRole indicates which side of the conversation wrote a message.
type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderAdmin    SenderRole = "admin"
)

// ContentKind differentiates text from media messages.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
	ContentVoice ContentKind = "voice"
)

// IsMedia reports whether the content refers to a stored file.
func (k ContentKind) IsMedia() bool {
	return k == ContentImage || k == ContentVoice
}

// Message is a single chat entry. Content holds the text body or the media path.
type Message struct {
	ID          int64
	CustomerID  string
	Sender      SenderRole
	ContentKind ContentKind
	Content     string
	CreatedAt   time.Time
}
