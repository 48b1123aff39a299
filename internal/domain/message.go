package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a note between buyer and seller about one item
type Message struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ItemID      uuid.UUID `json:"item_id" db:"item_id"`
	SenderID    uuid.UUID `json:"sender_id" db:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id" db:"recipient_id"`
	Content     string    `json:"content" db:"content"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Counterpart returns the other party of the message relative to userID
func (m *Message) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Conversation groups messages about one item between the same two users
type Conversation struct {
	ItemID        uuid.UUID `json:"item_id"`
	ItemTitle     string    `json:"item_title"`
	CounterpartID uuid.UUID `json:"counterpart_id"`
	LastMessage   *Message  `json:"last_message"`
	UnreadCount   int       `json:"unread_count"`
}
