package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"chatgrid/internal/domain"
)

var idCounter atomic.Int64

func nextID() int64 {
	return idCounter.Add(1)
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewTestUser creates a test user with sensible defaults
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	id := nextID()
	o := &UserOptions{
		ID:           id,
		Username:     fmt.Sprintf("testuser%d", id),
		PasswordHash: "$2a$12$test.hash.for.testing.purposes.only",
		CreatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &domain.User{
		ID:           o.ID,
		Username:     o.Username,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
	}
}

// WithUsername overrides the fixture username
func WithUsername(username string) func(*UserOptions) {
	return func(o *UserOptions) { o.Username = username }
}

// WithUserID overrides the fixture user id
func WithUserID(id int64) func(*UserOptions) {
	return func(o *UserOptions) { o.ID = id }
}

// ChatOptions allows customizing chat fixture creation
type ChatOptions struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

// NewTestChat creates a test chat with sensible defaults
func NewTestChat(opts ...func(*ChatOptions)) *domain.Chat {
	id := nextID()
	o := &ChatOptions{
		ID:        id,
		Name:      fmt.Sprintf("room-%d", id),
		OwnerID:   1,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &domain.Chat{
		ID:        o.ID,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt,
	}
}

// WithChatName overrides the fixture chat name
func WithChatName(name string) func(*ChatOptions) {
	return func(o *ChatOptions) { o.Name = name }
}

// WithOwnerID overrides the fixture chat owner
func WithOwnerID(id int64) func(*ChatOptions) {
	return func(o *ChatOptions) { o.OwnerID = id }
}
