package lb

import (
	"testing"

	"chatgrid/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(n int) *Pool {
	configs := make([]config.BackendConfig, 0, n)
	for i := 0; i < n; i++ {
		configs = append(configs, config.BackendConfig{
			ID:   "server-" + string(rune('1'+i)),
			Host: "127.0.0.1",
			Port: 8001 + i,
		})
	}
	return NewPool(configs)
}

func TestPool_ByID(t *testing.T) {
	pool := testPool(3)

	require.NotNil(t, pool.ByID("server-2"))
	assert.Equal(t, "127.0.0.1:8002", pool.ByID("server-2").Address)
	assert.Nil(t, pool.ByID("server-9"))
}

func TestPool_Healthy(t *testing.T) {
	pool := testPool(3)

	assert.Len(t, pool.Healthy(), 3)

	pool.ByID("server-2").SetHealthy(false)
	healthy := pool.Healthy()
	require.Len(t, healthy, 2)
	assert.Equal(t, "server-1", healthy[0].ID)
	assert.Equal(t, "server-3", healthy[1].ID)
}

func TestPool_LeastLoaded(t *testing.T) {
	t.Run("minimum_active_connections", func(t *testing.T) {
		pool := testPool(3)
		pool.ByID("server-1").Inc()
		pool.ByID("server-1").Inc()
		pool.ByID("server-2").Inc()

		assert.Equal(t, "server-3", pool.LeastLoaded().ID)
	})

	t.Run("prefers_healthy", func(t *testing.T) {
		pool := testPool(3)
		// The idle replica is unhealthy; the busier healthy one wins.
		pool.ByID("server-1").SetHealthy(false)
		pool.ByID("server-2").Inc()
		pool.ByID("server-3").Inc()
		pool.ByID("server-3").Inc()

		assert.Equal(t, "server-2", pool.LeastLoaded().ID)
	})

	t.Run("falls_back_when_none_healthy", func(t *testing.T) {
		pool := testPool(2)
		pool.ByID("server-1").SetHealthy(false)
		pool.ByID("server-2").SetHealthy(false)
		pool.ByID("server-1").Inc()

		require.NotNil(t, pool.LeastLoaded())
		assert.Equal(t, "server-2", pool.LeastLoaded().ID)
	})
}

func TestBackend_DecUnderflow(t *testing.T) {
	pool := testPool(1)
	b := pool.ByID("server-1")

	b.Dec()
	assert.Equal(t, int64(0), b.Active())

	b.Inc()
	b.Dec()
	b.Dec()
	assert.Equal(t, int64(0), b.Active())
}
