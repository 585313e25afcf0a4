package models

import "time"

type Message struct {
	ID          int        `json:"id"`
	SenderID    int        `json:"sender_id"`
	RecipientID int        `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ConversationSummary is one inbox row: the latest message exchanged with a
// counterpart plus how many of their messages are still unread.
type ConversationSummary struct {
	CounterpartID   int     `json:"counterpart_id"`
	CounterpartName string  `json:"counterpart_name"`
	LastMessage     Message `json:"last_message"`
	UnreadCount     int     `json:"unread_count"`
}
