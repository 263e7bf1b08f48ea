package lb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flippableBackend serves /health and can be switched between 200 and 503
type flippableBackend struct {
	server *httptest.Server
	up     atomic.Bool
}

func newFlippableBackend(t *testing.T) *flippableBackend {
	t.Helper()
	fb := &flippableBackend{}
	fb.up.Store(true)
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || !fb.up.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func poolOf(backends ...*Backend) *Pool {
	p := &Pool{byID: make(map[string]*Backend, len(backends))}
	for _, b := range backends {
		p.backends = append(p.backends, b)
		p.byID[b.ID] = b
	}
	return p
}

func TestProber_Transitions(t *testing.T) {
	fb := newFlippableBackend(t)
	backend := backendFor(t, fb.server, "server-1")
	pool := poolOf(backend)
	registry := NewWSRegistry()

	prober := NewProber(pool, registry, time.Minute, time.Second)

	t.Run("healthy_backend_stays_healthy", func(t *testing.T) {
		prober.probeAll(context.Background())
		assert.True(t, backend.Healthy())
		assert.False(t, backend.LastProbe().IsZero())
	})

	t.Run("failure_marks_unhealthy_and_drains", func(t *testing.T) {
		h1 := registry.Add("server-1", "42")
		h2 := registry.Add("server-1", "43")

		fb.up.Store(false)
		prober.probeAll(context.Background())

		assert.False(t, backend.Healthy())

		select {
		case <-h1.CloseSignal():
		default:
			t.Fatal("first handle did not receive a close signal")
		}
		select {
		case <-h2.CloseSignal():
		default:
			t.Fatal("second handle did not receive a close signal")
		}
	})

	t.Run("recovery_marks_healthy_again", func(t *testing.T) {
		fb.up.Store(true)
		prober.probeAll(context.Background())
		assert.True(t, backend.Healthy())
	})

	t.Run("unreachable_backend_is_unhealthy", func(t *testing.T) {
		dead := &Backend{ID: "server-2", BaseURL: "http://127.0.0.1:1", Address: "127.0.0.1:1", healthy: true}
		deadPool := poolOf(dead)

		NewProber(deadPool, NewWSRegistry(), time.Minute, 500*time.Millisecond).
			probeAll(context.Background())

		assert.False(t, dead.Healthy())
	})
}

func TestProber_RunProbesImmediately(t *testing.T) {
	fb := newFlippableBackend(t)
	fb.up.Store(false)
	backend := backendFor(t, fb.server, "server-1")
	pool := poolOf(backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewProber(pool, NewWSRegistry(), time.Hour, time.Second).Run(ctx)

	// The first probe fires before the first tick.
	require.Eventually(t, func() bool {
		return !backend.Healthy()
	}, 2*time.Second, 10*time.Millisecond)
}
