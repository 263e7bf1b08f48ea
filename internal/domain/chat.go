package domain

import (
	"context"
	"errors"
	"time"
)

var ErrChatNotFound = errors.New("chat not found")

// Chat represents a chat room
type Chat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is a chat row joined with its live user count
type ChatSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ActiveUsers int64  `json:"active_users"`
}

// ChatRepository defines the interface for chat data access
type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	GetByID(ctx context.Context, id int64) (*Chat, error)
	ListWithActiveUsers(ctx context.Context) ([]*ChatSummary, error)
	FindByNamePrefix(ctx context.Context, prefix string) ([]*Chat, error)
}
