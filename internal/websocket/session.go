package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"chatgrid/internal/bus"
	"chatgrid/internal/domain"
	"chatgrid/internal/observability"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 4096

	opTimeout        = 5 * time.Second
	suggestTimeout   = 5 * time.Second
	recentListLength = 10
)

// Session is one live chat socket. Cross-socket delivery goes exclusively
// through the bus: the session publishes everything it produces and relays
// everything its room channel receives, so events originate on any replica.
type Session struct {
	conn      *websocket.Conn
	signals   domain.Bus
	messages  domain.MessageRepository
	presence  domain.OnlineUserRepository
	suggestor domain.Suggestor
	chatID    int64
	userID    int64
	username  string

	// The bus relay, the ping ticker and the suggestion handler all write to
	// the same socket.
	writeMu sync.Mutex
}

// NewSession creates a chat session for an upgraded connection
func NewSession(conn *websocket.Conn, signals domain.Bus, messages domain.MessageRepository,
	presence domain.OnlineUserRepository, suggestor domain.Suggestor,
	chatID, userID int64, username string) *Session {
	return &Session{
		conn:      conn,
		signals:   signals,
		messages:  messages,
		presence:  presence,
		suggestor: suggestor,
		chatID:    chatID,
		userID:    userID,
		username:  username,
	}
}

// Run drives the session until the client disconnects. Presence bookkeeping
// and bus publishes are best-effort: a failing dependency never tears down
// the socket on its own.
func (s *Session) Run(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chatLabel := strconv.FormatInt(s.chatID, 10)
	observability.ChatConnectionsActive.WithLabelValues(chatLabel).Inc()
	defer observability.ChatConnectionsActive.WithLabelValues(chatLabel).Dec()

	// The room subscription must exist before the join is announced, or this
	// socket misses its own join and user-list frames. A subscribe failure
	// ends only the relay; the socket stays open until the client leaves.
	sub, err := s.signals.Subscribe(sessionCtx, bus.RoomChannel(s.chatID))
	if err != nil {
		slog.Error("room subscribe failed",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
	} else {
		go s.relayBus(sessionCtx, sub)
	}

	s.join(sessionCtx)
	defer s.leave()

	go s.pingLoop(sessionCtx)

	s.readLoop(sessionCtx)
}

// join records presence and announces the arrival. The presence row is
// written before any event is published so subscribers never observe a join
// for a user who is not yet in the table.
func (s *Session) join(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.presence.Add(opCtx, s.userID, s.chatID); err != nil {
		slog.Error("failed to record presence",
			slog.Int64("user_id", s.userID),
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
	}

	s.publishRoom(ctx, JoinEvent(s.username))
	s.publishUserCount(ctx)
	s.publishUserList(ctx)
}

// leave runs on every exit path and reverses join
func (s *Session) leave() {
	// The session context is already done; presence cleanup gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.presence.Remove(ctx, s.userID, s.chatID); err != nil {
		slog.Error("failed to remove presence",
			slog.Int64("user_id", s.userID),
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
	}

	s.publishRoom(ctx, LeaveEvent(s.username))
	s.publishUserCount(ctx)
	s.publishUserList(ctx)
}

// relayBus forwards every payload from the room subscription to the client
// verbatim
func (s *Session) relayBus(ctx context.Context, sub domain.Subscription) {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := s.writeText(payload); err != nil {
				return
			}
		}
	}
}

func (s *Session) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeControl(websocket.PingMessage); err != nil {
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("chat socket error",
					slog.String("user", s.username),
					slog.String("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := ParseIncoming(data)
		if err != nil {
			slog.Warn("invalid chat frame",
				slog.String("user", s.username),
				slog.String("error", err.Error()))
			continue
		}

		switch msg.Type {
		case TypeChatMessage:
			s.handleChatMessage(ctx, msg.Content)
		case TypeRequestSuggestion:
			s.handleSuggestion(ctx, msg.CurrentInput)
		default:
			slog.Warn("unknown chat frame type",
				slog.String("type", msg.Type),
				slog.String("user", s.username))
		}
	}
}

// handleChatMessage persists the message, broadcasts it to the room and
// appends it to the bounded recent-history list.
func (s *Session) handleChatMessage(ctx context.Context, content string) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	msg := &domain.Message{
		ChatID:   s.chatID,
		SenderID: s.userID,
		Content:  content,
	}
	if err := s.messages.Create(opCtx, msg); err != nil {
		slog.Error("failed to persist message",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
		return
	}

	s.publishRoom(opCtx, MessageEvent(s.username, content))

	entry, err := json.Marshal(domain.PreviousMessage{
		Sender:    s.username,
		Content:   content,
		CreatedAt: msg.CreatedAt,
	})
	if err == nil {
		if err := s.signals.PushRecent(opCtx, bus.RecentKey(s.chatID), string(entry), recentListLength); err != nil {
			slog.Warn("failed to store recent message",
				slog.Int64("chat_id", s.chatID),
				slog.String("error", err.Error()))
		}
	}
}

// handleSuggestion asks the suggestor for a continuation and replies to this
// socket only. Failures surface as an in-band suggestion_error frame, never
// as a socket close.
func (s *Session) handleSuggestion(ctx context.Context, currentInput string) {
	opCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	completion, err := s.suggestor.Suggest(opCtx, []domain.ChatTurn{
		{Role: "user", Content: currentInput},
	})
	if err != nil {
		observability.SuggestionsTotal.WithLabelValues("error").Inc()
		slog.Warn("suggestion failed",
			slog.String("user", s.username),
			slog.String("error", err.Error()))
		_ = s.writeText(SuggestionErrorEvent(err))
		return
	}

	observability.SuggestionsTotal.WithLabelValues("ok").Inc()
	_ = s.writeText(SuggestionEvent(completion))
}

func (s *Session) publishRoom(ctx context.Context, payload string) {
	if err := s.signals.Publish(ctx, bus.RoomChannel(s.chatID), payload); err != nil {
		slog.Warn("room publish failed",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
		return
	}
	observability.BusPublishesTotal.WithLabelValues("room").Inc()
}

func (s *Session) publishUserCount(ctx context.Context) {
	count, err := s.presence.CountByChat(ctx, s.chatID)
	if err != nil {
		slog.Warn("failed to count online users",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
		return
	}
	if err := s.signals.Publish(ctx, bus.ChatListChannel, UserCountEvent(s.chatID, count)); err != nil {
		slog.Warn("chat-list publish failed",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
		return
	}
	observability.BusPublishesTotal.WithLabelValues("chat_list").Inc()
}

func (s *Session) publishUserList(ctx context.Context) {
	names, err := s.presence.UsernamesByChat(ctx, s.chatID)
	if err != nil {
		slog.Warn("failed to list online users",
			slog.Int64("chat_id", s.chatID),
			slog.String("error", err.Error()))
		return
	}
	s.publishRoom(ctx, UserListEvent(names))
}

func (s *Session) writeText(payload string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

func (s *Session) writeControl(messageType int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, nil)
}
