package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineUserRepository_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOnlineUserRepository(db)

	// A reconnect deletes the stale row before inserting the new one.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM online_users")).
		WithArgs(int64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO online_users")).
		WithArgs(int64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Add(context.Background(), 42, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnlineUserRepository_Remove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOnlineUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM online_users")).
		WithArgs(int64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), 42, 3))
}

func TestOnlineUserRepository_CountByChat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOnlineUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountByChat(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestOnlineUserRepository_UsernamesByChat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOnlineUserRepository(db)

	mock.ExpectQuery("JOIN users").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"username"}).
			AddRow("alice").
			AddRow("bob"))

	names, err := repo.UsernamesByChat(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}
