package websocket

import (
	"encoding/json"
	"fmt"

	"chatgrid/internal/domain"
)

// Incoming message types sent by clients over the chat socket
const (
	TypeChatMessage       = "chat_message"
	TypeRequestSuggestion = "request_suggestion"
)

// IncomingMessage is the client-to-server frame envelope
type IncomingMessage struct {
	Type         string `json:"type"`
	Content      string `json:"content,omitempty"`
	CurrentInput string `json:"current_input,omitempty"`
}

// ParseIncoming decodes a client text frame
func ParseIncoming(data []byte) (*IncomingMessage, error) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("missing message type")
	}
	return &msg, nil
}

// MessageEvent is the room broadcast for a chat message
func MessageEvent(username, text string) string {
	return mustMarshal(map[string]interface{}{
		"type":    "message",
		"content": fmt.Sprintf("%s: %s", username, text),
	})
}

// JoinEvent is the room broadcast announcing a user joined
func JoinEvent(username string) string {
	return mustMarshal(map[string]interface{}{
		"type":     "system_message",
		"subtype":  "join",
		"content":  fmt.Sprintf("%s joined the chat", username),
		"username": username,
	})
}

// LeaveEvent is the room broadcast announcing a user left
func LeaveEvent(username string) string {
	return mustMarshal(map[string]interface{}{
		"type":     "system_message",
		"subtype":  "leave",
		"content":  fmt.Sprintf("%s left the chat", username),
		"username": username,
	})
}

// UserCountEvent is the chat-list broadcast with a room's live user count
func UserCountEvent(chatID, count int64) string {
	return mustMarshal(map[string]interface{}{
		"type":    "user_count",
		"chatId":  chatID,
		"content": count,
	})
}

// UserListEvent is the room broadcast with the current member usernames
func UserListEvent(names []string) string {
	if names == nil {
		names = []string{}
	}
	return mustMarshal(map[string]interface{}{
		"type":    "user_list",
		"content": names,
	})
}

// SuggestionEvent is the unicast reply carrying a completed suggestion
func SuggestionEvent(text string) string {
	return mustMarshal(map[string]interface{}{
		"type": "suggestion",
		"text": text,
	})
}

// SuggestionErrorEvent is the unicast reply for a failed suggestion
func SuggestionErrorEvent(err error) string {
	msg := "suggestion unavailable"
	if err != nil && err != domain.ErrSuggestionUnavailable {
		msg = err.Error()
	}
	return mustMarshal(map[string]interface{}{
		"type":  "suggestion_error",
		"error": msg,
	})
}

func mustMarshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		// All inputs are maps of marshalable values; this cannot fail.
		panic(err)
	}
	return string(data)
}
