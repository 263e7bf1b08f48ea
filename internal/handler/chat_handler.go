package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chatgrid/internal/domain"
	"chatgrid/internal/middleware"
	"chatgrid/internal/service"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles chat room endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// CreateChatRequest represents a chat creation request
type CreateChatRequest struct {
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

// ChatResponse is the public view of a chat room
type ChatResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

// ChatDetailResponse adds the recent message history to a chat
type ChatDetailResponse struct {
	ChatResponse
	PreviousMessages []domain.PreviousMessage `json:"previous_messages"`
}

// Create creates a new chat room
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	// The owner is the session user regardless of what the body claims.
	chat, err := h.chatService.CreateChat(r.Context(), req.Name, claims.Sub)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, `{"error":"invalid chat name"}`, http.StatusBadRequest)
		} else {
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ChatResponse{ID: chat.ID, Name: chat.Name, OwnerID: chat.OwnerID})
}

// List returns every chat with its live user count
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.ListChats(r.Context())
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []*domain.ChatSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chats)
}

// Get returns one chat with its recent message history
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid chat id"}`, http.StatusBadRequest)
		return
	}

	chat, history, err := h.chatService.GetChat(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
		} else {
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		}
		return
	}
	if history == nil {
		history = []domain.PreviousMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatDetailResponse{
		ChatResponse:     ChatResponse{ID: chat.ID, Name: chat.Name, OwnerID: chat.OwnerID},
		PreviousMessages: history,
	})
}

// FindByName returns chats whose name starts with the given prefix
func (h *ChatHandler) FindByName(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "name")
	if prefix == "" {
		http.Error(w, `{"error":"chat name required"}`, http.StatusBadRequest)
		return
	}

	chats, err := h.chatService.FindChatsByName(r.Context(), prefix)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := make([]ChatResponse, 0, len(chats))
	for _, chat := range chats {
		resp = append(resp, ChatResponse{ID: chat.ID, Name: chat.Name, OwnerID: chat.OwnerID})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
