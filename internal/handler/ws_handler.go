package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"chatgrid/internal/domain"
	"chatgrid/internal/middleware"
	"chatgrid/internal/service"
	ws "chatgrid/internal/websocket"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement happens at the load balancer; the app server
		// additionally requires a valid session cookie before upgrading.
		return true
	},
}

// WSHandler handles WebSocket upgrades for chat rooms and the chat list
type WSHandler struct {
	chatService *service.ChatService
	signals     domain.Bus
	messages    domain.MessageRepository
	presence    domain.OnlineUserRepository
	suggestor   domain.Suggestor
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(chatService *service.ChatService, signals domain.Bus,
	messages domain.MessageRepository, presence domain.OnlineUserRepository,
	suggestor domain.Suggestor) *WSHandler {
	return &WSHandler{
		chatService: chatService,
		signals:     signals,
		messages:    messages,
		presence:    presence,
		suggestor:   suggestor,
	}
}

// Chat upgrades the connection and runs a room session
func (h *WSHandler) Chat(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	chatID, err := strconv.ParseInt(r.URL.Query().Get("chat_id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid chat id"}`, http.StatusBadRequest)
		return
	}

	if _, _, err := h.chatService.GetChat(r.Context(), chatID); err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
		} else {
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	session := ws.NewSession(conn, h.signals, h.messages, h.presence, h.suggestor,
		chatID, claims.Sub, claims.Username)
	session.Run(r.Context())
}

// ChatList upgrades the connection and relays chat-list events
func (h *WSHandler) ChatList(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetClaims(r.Context()); !ok {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	session := ws.NewChatListSession(conn, h.signals)
	session.Run(r.Context())
}
