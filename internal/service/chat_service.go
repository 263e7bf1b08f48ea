package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"chatgrid/internal/bus"
	"chatgrid/internal/domain"
	"chatgrid/internal/observability"
)

// recentHistorySize bounds the per-room recent message list on the bus
const recentHistorySize = 10

// ChatService handles chat room CRUD and recent-history lookup
type ChatService struct {
	chatRepo domain.ChatRepository
	signals  domain.Bus
}

// NewChatService creates a new chat service
func NewChatService(chatRepo domain.ChatRepository, signals domain.Bus) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		signals:  signals,
	}
}

// CreateChat creates a chat room and announces it on the global chat-list
// channel. The announcement is best-effort; a bus failure does not undo the
// created room.
func (s *ChatService) CreateChat(ctx context.Context, name string, ownerID int64) (*domain.Chat, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	chat := &domain.Chat{
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type": "new_chat",
		"content": map[string]interface{}{
			"id":           chat.ID,
			"name":         chat.Name,
			"active_users": 0,
		},
	})
	if err == nil {
		if err := s.signals.Publish(ctx, bus.ChatListChannel, string(payload)); err != nil {
			slog.Warn("failed to announce new chat",
				slog.Int64("chat_id", chat.ID),
				slog.String("error", err.Error()))
		} else {
			observability.BusPublishesTotal.WithLabelValues("chat_list").Inc()
		}
	}

	return chat, nil
}

// ListChats returns every chat with its live user count
func (s *ChatService) ListChats(ctx context.Context) ([]*domain.ChatSummary, error) {
	return s.chatRepo.ListWithActiveUsers(ctx)
}

// GetChat returns a chat and its recent messages, oldest first. The recent
// history comes from the bus list, not from persistence, so it reflects
// messages seen by any replica.
func (s *ChatService) GetChat(ctx context.Context, id int64) (*domain.Chat, []domain.PreviousMessage, error) {
	chat, err := s.chatRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	raw, err := s.signals.Recent(ctx, bus.RecentKey(id), recentHistorySize)
	if err != nil {
		slog.Warn("failed to load recent messages",
			slog.Int64("chat_id", id),
			slog.String("error", err.Error()))
		return chat, nil, nil
	}

	messages := make([]domain.PreviousMessage, 0, len(raw))
	for _, entry := range raw {
		var msg domain.PreviousMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	// List entries are newest first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return chat, messages, nil
}

// FindChatsByName returns chats whose name starts with the prefix
func (s *ChatService) FindChatsByName(ctx context.Context, prefix string) ([]*domain.Chat, error) {
	return s.chatRepo.FindByNamePrefix(ctx, prefix)
}
