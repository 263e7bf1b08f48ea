package websocket

import (
	"context"
	"log/slog"
	"time"

	"chatgrid/internal/bus"
	"chatgrid/internal/domain"

	"github.com/gorilla/websocket"
)

// ChatListSession relays the global chat-list channel to one client. The
// client sends nothing meaningful; inbound frames are drained and discarded.
type ChatListSession struct {
	conn    *websocket.Conn
	signals domain.Bus
}

// NewChatListSession creates a chat-list session for an upgraded connection
func NewChatListSession(conn *websocket.Conn, signals domain.Bus) *ChatListSession {
	return &ChatListSession{conn: conn, signals: signals}
}

// Run relays chat-list events until the client disconnects
func (s *ChatListSession) Run(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.relay(sessionCtx)

	// Drain inbound frames; a read error means the client is gone.
	s.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *ChatListSession) relay(ctx context.Context) {
	sub, err := s.signals.Subscribe(ctx, bus.ChatListChannel)
	if err != nil {
		slog.Error("chat-list subscribe failed", slog.String("error", err.Error()))
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
		}
	}
}
