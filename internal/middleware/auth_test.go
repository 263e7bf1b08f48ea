package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatgrid/internal/domain"
	"chatgrid/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserLookup struct {
	user *domain.User
	err  error
}

func (s *stubUserLookup) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.user, s.err
}

func TestUserAuth(t *testing.T) {
	tokens := token.NewManager("test-secret")

	authedUser := &domain.User{ID: 42, Username: "alice"}

	newGuard := func(lookup UserLookup) (http.Handler, *token.Claims) {
		var seen token.Claims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := GetClaims(r.Context()); ok {
				seen = *claims
			}
			w.WriteHeader(http.StatusOK)
		})
		return UserAuth(tokens, lookup)(next), &seen
	}

	t.Run("no_cookie", func(t *testing.T) {
		guard, _ := newGuard(&stubUserLookup{user: authedUser})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid_token", func(t *testing.T) {
		guard, _ := newGuard(&stubUserLookup{user: authedUser})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid_token_attaches_claims", func(t *testing.T) {
		guard, seen := newGuard(&stubUserLookup{user: authedUser})

		sessionToken, err := tokens.Encode(42, "alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionToken})
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), seen.Sub)
		assert.Equal(t, "alice", seen.Username)
	})

	t.Run("deleted_user", func(t *testing.T) {
		guard, _ := newGuard(&stubUserLookup{err: domain.ErrUserNotFound})

		sessionToken, err := tokens.Encode(42, "alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionToken})
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lookup_failure", func(t *testing.T) {
		guard, _ := newGuard(&stubUserLookup{err: errors.New("connection lost")})

		sessionToken, err := tokens.Encode(42, "alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionToken})
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
