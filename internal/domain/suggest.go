package domain

import (
	"context"
	"errors"
)

var ErrSuggestionUnavailable = errors.New("suggestion unavailable")

// ChatTurn is one entry of conversation context sent to the suggestor
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Suggestor returns a short continuation for a partial chat input
type Suggestor interface {
	Suggest(ctx context.Context, conversation []ChatTurn) (string, error)
}
