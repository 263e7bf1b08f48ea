package lb

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(pool *Pool) *Router {
	return NewRouter(pool, NewHashRing(pool.List()), "lb_server_id", 86400, false)
}

func TestRouter_Route(t *testing.T) {
	t.Run("sticky_healthy_wins", func(t *testing.T) {
		pool := testPool(3)
		rt := testRouter(pool)

		req := requestWithCookie("lb_server_id", "server-2")
		backend := rt.Route(req)
		require.NotNil(t, backend)
		assert.Equal(t, "server-2", backend.ID)
	})

	t.Run("sticky_unhealthy_falls_through", func(t *testing.T) {
		pool := testPool(3)
		pool.ByID("server-2").SetHealthy(false)
		rt := testRouter(pool)

		req := requestWithCookie("lb_server_id", "server-2")
		backend := rt.Route(req)
		require.NotNil(t, backend)
		assert.NotEqual(t, "server-2", backend.ID)
	})

	t.Run("sticky_unknown_falls_through", func(t *testing.T) {
		pool := testPool(2)
		rt := testRouter(pool)

		req := requestWithCookie("lb_server_id", "server-9")
		require.NotNil(t, rt.Route(req))
	})

	t.Run("user_hash_is_deterministic", func(t *testing.T) {
		pool := testPool(3)
		rt := testRouter(pool)

		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":42}`))
		first := rt.Route(requestWithCookie("session", "h."+payload+".s"))
		require.NotNil(t, first)

		for i := 0; i < 5; i++ {
			got := rt.Route(requestWithCookie("session", "h."+payload+".s"))
			assert.Equal(t, first.ID, got.ID)
		}
	})

	t.Run("anonymous_gets_least_loaded", func(t *testing.T) {
		pool := testPool(3)
		pool.ByID("server-1").Inc()
		pool.ByID("server-2").Inc()
		rt := testRouter(pool)

		backend := rt.Route(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotNil(t, backend)
		assert.Equal(t, "server-3", backend.ID)
	})
}

func TestRouter_WriteSticky(t *testing.T) {
	t.Run("sets_cookie_when_missing", func(t *testing.T) {
		pool := testPool(2)
		rt := testRouter(pool)

		rec := httptest.NewRecorder()
		rt.WriteSticky(rec, httptest.NewRequest(http.MethodGet, "/", nil), pool.ByID("server-1"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "lb_server_id", cookies[0].Name)
		assert.Equal(t, "server-1", cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
		assert.Equal(t, 86400, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("refreshes_stale_cookie", func(t *testing.T) {
		pool := testPool(2)
		rt := testRouter(pool)

		rec := httptest.NewRecorder()
		rt.WriteSticky(rec, requestWithCookie("lb_server_id", "server-1"), pool.ByID("server-2"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "server-2", cookies[0].Value)
	})

	t.Run("no_cookie_when_already_correct", func(t *testing.T) {
		pool := testPool(2)
		rt := testRouter(pool)

		rec := httptest.NewRecorder()
		rt.WriteSticky(rec, requestWithCookie("lb_server_id", "server-1"), pool.ByID("server-1"))

		assert.Empty(t, rec.Result().Cookies())
	})
}
