package domain

import (
	"context"
	"time"
)

// Message represents a persisted chat message
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PreviousMessage is the envelope stored in the bus recent-history list
type PreviousMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByChat(ctx context.Context, chatID int64, limit int) ([]*Message, error)
}
