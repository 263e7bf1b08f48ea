// Package bus implements the cross-replica signalling port on Redis:
// pub/sub channels for fan-out and bounded lists for recent chat history.
package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatgrid/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ChatListChannel carries global chat-registry events (new chats, user counts)
const ChatListChannel = "chat_list"

// RoomChannel returns the pub/sub channel for one chat room
func RoomChannel(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// RecentKey returns the list key holding a room's recent message history
func RecentKey(chatID int64) string {
	return fmt.Sprintf("chat_messages:%d", chatID)
}

// RedisBus implements domain.Bus on a Redis connection
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to Redis and verifies the connection. The address may
// be a redis:// URL or a bare host:port.
func NewRedisBus(addr string) (*RedisBus, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBus{client: client}, nil
}

// Publish sends a payload to every subscriber of the channel
func (b *RedisBus) Publish(ctx context.Context, channel, payload string) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a dedicated pub/sub connection for the channel
func (b *RedisBus) Subscribe(ctx context.Context, channel string) (domain.Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)

	// Confirm the subscription before handing it out so a publish immediately
	// after Subscribe returns is not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:       ps,
		messages: make(chan string, 64),
	}
	go sub.relay()
	return sub, nil
}

// PushRecent prepends a payload to the key's list and trims it to limit entries
func (b *RedisBus) PushRecent(ctx context.Context, key, payload string, limit int64) error {
	if err := b.client.LPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	return b.client.LTrim(ctx, key, 0, limit-1).Err()
}

// Recent returns up to n newest-first payloads from the key's list
func (b *RedisBus) Recent(ctx context.Context, key string, n int64) ([]string, error) {
	return b.client.LRange(ctx, key, 0, n-1).Result()
}

// Ping verifies the Redis connection, used by readiness checks
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps       *redis.PubSub
	messages chan string
}

func (s *redisSubscription) relay() {
	defer close(s.messages)
	for msg := range s.ps.Channel() {
		s.messages <- msg.Payload
	}
}

func (s *redisSubscription) Messages() <-chan string {
	return s.messages
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
