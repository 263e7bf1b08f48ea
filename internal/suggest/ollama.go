// Package suggest provides the chat autocomplete client backed by a local
// Ollama instance.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatgrid/internal/domain"
)

const (
	model      = "llama3.1:8b"
	numPredict = 18
	// Keep at most this many prior turns of context in the prompt.
	maxContext = 5
)

const systemPrompt = `You are an autocomplete for a chat input. Continue ONLY the user's last line in the same tone.
Rules:
- If the last line ends MID-WORD, finish that word with NO leading space.
- If the last line ends at a COMPLETE word, begin with ONE leading space.
- After that, add up to 5 more likely words.
- Use normal spaces between words. No punctuation, quotes, or newlines.
- Return ONLY the continuation fragment (no echo, no labels).

Examples:
Last line: Hello,
Completion: how are you?

Last line: I'm good,
Completion: thank you!

Last line: What did yo
Completion: u do today?`

// OllamaClient requests short chat continuations from an Ollama server
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient creates a suggestion client for the given Ollama base URL
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []promptMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  chatOptions     `json:"options"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Suggest returns a continuation for the last entry of the conversation.
// The last entry is the user's incomplete input; earlier entries are prior
// messages used as context.
func (c *OllamaClient) Suggest(ctx context.Context, conversation []domain.ChatTurn) (string, error) {
	if len(conversation) == 0 {
		return "", domain.ErrSuggestionUnavailable
	}

	prior, last := conversation[:len(conversation)-1], conversation[len(conversation)-1]

	messages := []promptMessage{{Role: "system", Content: systemPrompt}}
	if len(prior) > maxContext {
		prior = prior[len(prior)-maxContext:]
	}
	for _, turn := range prior {
		messages = append(messages, promptMessage{Role: "user", Content: turn.Content})
	}
	messages = append(messages, promptMessage{Role: "user", Content: last.Content})

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: chatOptions{
			Temperature: 0.1,
			NumPredict:  numPredict,
			Stop:        []string{"\n", ".", "!", "?", ","},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("suggestion request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("invalid suggestion response: %w", err)
	}

	completion := strings.TrimRight(parsed.Message.Content, "\n")
	if completion == "" {
		return "", domain.ErrSuggestionUnavailable
	}
	return completion, nil
}
