package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatgrid/internal/middleware"
	"chatgrid/internal/service"
	"chatgrid/internal/testutil"
	"chatgrid/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandler(repo *testutil.MockUserRepository) (*AuthHandler, *token.Manager) {
	tokens := token.NewManager("test-secret")
	return NewAuthHandler(service.NewAuthService(repo, tokens), "development"), tokens
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register",
			strings.NewReader(`{"username":"alice","password":"password123"}`))
		rec := httptest.NewRecorder()
		h.Register(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "alice", resp.Username)
		assert.NotZero(t, resp.ID)
	})

	t.Run("invalid_body", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid_input", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register",
			strings.NewReader(`{"username":"ab","password":"password123"}`))
		rec := httptest.NewRecorder()
		h.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate_username", func(t *testing.T) {
		repo := testutil.NewMockUserRepository()
		h, _ := newAuthHandler(repo)

		body := `{"username":"alice","password":"password123"}`
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"username already exists"}`, rec.Body.String())
	})
}

func TestAuthHandler_Login(t *testing.T) {
	register := func(t *testing.T, h *AuthHandler) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/register",
			strings.NewReader(`{"username":"alice","password":"password123"}`)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("sets_session_cookie", func(t *testing.T) {
		h, tokens := newAuthHandler(testutil.NewMockUserRepository())
		register(t, h)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
			strings.NewReader(`{"username":"alice","password":"password123"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, middleware.SessionCookieName, cookie.Name)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, sessionCookieMaxAge, cookie.MaxAge)

		claims, err := tokens.Decode(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("missing_user_is_not_found", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
			strings.NewReader(`{"username":"ghost","password":"password123"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"user not found"}`, rec.Body.String())
	})

	t.Run("wrong_password_is_unauthorized", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())
		register(t, h)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
			strings.NewReader(`{"username":"alice","password":"wrongpassword"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h, _ := newAuthHandler(testutil.NewMockUserRepository())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthHandler_Whoami(t *testing.T) {
	t.Run("returns_session_identity", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req = req.WithContext(middleware.WithClaims(req.Context(),
			&token.Claims{Sub: 42, Username: "alice"}))
		rec := httptest.NewRecorder()
		h.Whoami(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":42,"username":"alice"}`, rec.Body.String())
	})

	t.Run("no_claims", func(t *testing.T) {
		h, _ := newAuthHandler(testutil.NewMockUserRepository())

		rec := httptest.NewRecorder()
		h.Whoami(rec, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
