package postgres

import (
	"context"
	"database/sql"
)

// OnlineUserRepository implements domain.OnlineUserRepository for PostgreSQL
type OnlineUserRepository struct {
	db *sql.DB
}

// NewOnlineUserRepository creates a new PostgreSQL presence repository
func NewOnlineUserRepository(db *sql.DB) *OnlineUserRepository {
	return &OnlineUserRepository{db: db}
}

// Add records a live socket for (user, chat). Any stale row from a previous
// socket is removed first so reconnects leave exactly one row.
func (r *OnlineUserRepository) Add(ctx context.Context, userID, chatID int64) error {
	if err := r.Remove(ctx, userID, chatID); err != nil {
		return err
	}
	query := `
		INSERT INTO online_users (user_id, chat_id)
		VALUES ($1, $2)
	`
	_, err := r.db.ExecContext(ctx, query, userID, chatID)
	return err
}

// Remove deletes the presence rows for (user, chat)
func (r *OnlineUserRepository) Remove(ctx context.Context, userID, chatID int64) error {
	query := `
		DELETE FROM online_users
		WHERE user_id = $1 AND chat_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, chatID)
	return err
}

// CountByChat returns the number of users currently online in a chat
func (r *OnlineUserRepository) CountByChat(ctx context.Context, chatID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM online_users
		WHERE chat_id = $1
	`
	var count int64
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(&count)
	return count, err
}

// UsernamesByChat returns the usernames currently online in a chat
func (r *OnlineUserRepository) UsernamesByChat(ctx context.Context, chatID int64) ([]string, error) {
	query := `
		SELECT u.username
		FROM online_users ou
		JOIN users u ON u.id = ou.user_id
		WHERE ou.chat_id = $1
		ORDER BY ou.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
