package lb

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backendFor(t *testing.T, ts *httptest.Server, id string) *Backend {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return &Backend{
		ID:      id,
		BaseURL: ts.URL,
		Address: u.Host,
		healthy: true,
	}
}

func TestProxy_Forward(t *testing.T) {
	t.Run("adds_lb_headers_and_strips_hop_by_hop", func(t *testing.T) {
		var seen http.Header
		var seenHost string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Clone()
			seenHost = r.Host
			w.Header().Set("X-App-Header", "kept")
			w.Header().Set("Transfer-Encoding", "identity")
			w.WriteHeader(http.StatusTeapot)
			io.WriteString(w, "body")
		}))
		defer ts.Close()

		backend := backendFor(t, ts, "server-1")
		proxy := NewProxy("shared-secret")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat?x=1", strings.NewReader(`{"name":"general"}`))
		req.Header.Set("X-Custom", "value")
		req.Header.Set("Proxy-Authorization", "leak")
		req.Header.Set("Te", "trailers")

		rec := httptest.NewRecorder()
		proxy.Forward(rec, req, backend)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "body", rec.Body.String())

		assert.Equal(t, "rust-load-balancer", seen.Get("x-forwarded-by"))
		assert.Equal(t, "server-1", seen.Get("x-forwarded-server"))
		assert.Equal(t, "shared-secret", seen.Get("x-lb-secret"))
		assert.Equal(t, "value", seen.Get("X-Custom"))
		assert.Empty(t, seen.Get("Proxy-Authorization"))
		assert.Empty(t, seen.Get("Te"))
		assert.Equal(t, backend.Address, seenHost)

		assert.Equal(t, "rust-load-balancer", rec.Header().Get("x-served-by"))
		assert.Equal(t, "kept", rec.Header().Get("X-App-Header"))
	})

	t.Run("forwards_query_and_body", func(t *testing.T) {
		var gotURI, gotBody string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotURI = r.URL.RequestURI()
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
		}))
		defer ts.Close()

		proxy := NewProxy("s")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat?limit=5&q=ge", strings.NewReader("payload"))
		rec := httptest.NewRecorder()
		proxy.Forward(rec, req, backendFor(t, ts, "server-1"))

		assert.Equal(t, "/api/v1/chat?limit=5&q=ge", gotURI)
		assert.Equal(t, "payload", gotBody)
	})

	t.Run("unknown_method", func(t *testing.T) {
		proxy := NewProxy("s")
		req := httptest.NewRequest("BREW", "/", nil)
		rec := httptest.NewRecorder()
		proxy.Forward(rec, req, &Backend{ID: "server-1", BaseURL: "http://127.0.0.1:1", Address: "127.0.0.1:1"})

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("dead_backend_maps_to_bad_gateway", func(t *testing.T) {
		proxy := NewProxy("s")
		// Port 1 refuses connections.
		backend := &Backend{ID: "server-1", BaseURL: "http://127.0.0.1:1", Address: "127.0.0.1:1"}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
		rec := httptest.NewRecorder()
		proxy.Forward(rec, req, backend)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"bad gateway"}`, rec.Body.String())
	})

	t.Run("connection_counter_returns_to_zero", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer ts.Close()

		backend := backendFor(t, ts, "server-1")
		proxy := NewProxy("s")

		rec := httptest.NewRecorder()
		proxy.Forward(rec, httptest.NewRequest(http.MethodGet, "/", nil), backend)

		assert.Equal(t, int64(0), backend.Active())
	})
}

func TestIsHopByHop(t *testing.T) {
	for _, name := range []string{"Connection", "connection", "UPGRADE", "Transfer-Encoding", "te"} {
		assert.True(t, isHopByHop(name), name)
	}
	for _, name := range []string{"Content-Type", "Cookie", "X-Lb-Secret"} {
		assert.False(t, isHopByHop(name), name)
	}
}
