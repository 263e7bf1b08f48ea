package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"chatgrid/internal/domain"
)

// likeEscaper neutralizes LIKE wildcards in user input so a search for "a_"
// does not match "abc"
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ChatRepository implements domain.ChatRepository for PostgreSQL
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new PostgreSQL chat repository
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a new chat room
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		chat.Name,
		chat.OwnerID,
	).Scan(&chat.ID, &chat.CreatedAt)
}

// GetByID retrieves a chat by ID
func (r *ChatRepository) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM chats
		WHERE id = $1
	`
	chat := &domain.Chat{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&chat.ID,
		&chat.Name,
		&chat.OwnerID,
		&chat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChatNotFound
	}
	return chat, err
}

// ListWithActiveUsers returns every chat with its live user count
func (r *ChatRepository) ListWithActiveUsers(ctx context.Context) ([]*domain.ChatSummary, error) {
	query := `
		SELECT c.id, c.name, COUNT(ou.user_id)
		FROM chats c
		LEFT JOIN online_users ou ON ou.chat_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*domain.ChatSummary
	for rows.Next() {
		summary := &domain.ChatSummary{}
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.ActiveUsers); err != nil {
			return nil, err
		}
		chats = append(chats, summary)
	}
	return chats, rows.Err()
}

// FindByNamePrefix returns chats whose name starts with the prefix, case-insensitively
func (r *ChatRepository) FindByNamePrefix(ctx context.Context, prefix string) ([]*domain.Chat, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM chats
		WHERE name ILIKE $1 || '%'
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, likeEscaper.Replace(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		chat := &domain.Chat{}
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.OwnerID, &chat.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}
