package domain

import (
	"context"
	"time"
)

// OnlineUser is a presence row kept for the lifetime of a live socket
type OnlineUser struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	ChatID   int64     `json:"chat_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// OnlineUserRepository defines the interface for presence data access
type OnlineUserRepository interface {
	Add(ctx context.Context, userID, chatID int64) error
	Remove(ctx context.Context, userID, chatID int64) error
	CountByChat(ctx context.Context, chatID int64) (int64, error)
	UsernamesByChat(ctx context.Context, chatID int64) ([]string, error)
}
