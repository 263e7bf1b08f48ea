package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackends(t *testing.T) {
	t.Run("plain_host_port_list", func(t *testing.T) {
		backends, err := ParseBackends("127.0.0.1:8001,127.0.0.1:8002,127.0.0.1:8003")
		require.NoError(t, err)
		require.Len(t, backends, 3)

		assert.Equal(t, "server-1", backends[0].ID)
		assert.Equal(t, "server-2", backends[1].ID)
		assert.Equal(t, "server-3", backends[2].ID)
		assert.Equal(t, "127.0.0.1", backends[0].Host)
		assert.Equal(t, 8001, backends[0].Port)
	})

	t.Run("scheme_is_stripped", func(t *testing.T) {
		backends, err := ParseBackends("http://app1:8001,https://app2:8002")
		require.NoError(t, err)
		require.Len(t, backends, 2)
		assert.Equal(t, "app1", backends[0].Host)
		assert.Equal(t, "app2", backends[1].Host)
	})

	t.Run("whitespace_and_blank_entries_ignored", func(t *testing.T) {
		backends, err := ParseBackends(" 127.0.0.1:8001 , ,127.0.0.1:8002")
		require.NoError(t, err)
		require.Len(t, backends, 2)
		// Ids follow the raw list position, not the compacted one.
		assert.Equal(t, "server-1", backends[0].ID)
		assert.Equal(t, "server-3", backends[1].ID)
	})

	t.Run("missing_port", func(t *testing.T) {
		_, err := ParseBackends("127.0.0.1")
		assert.Error(t, err)
	})

	t.Run("bad_port", func(t *testing.T) {
		_, err := ParseBackends("127.0.0.1:http")
		assert.Error(t, err)
	})

	t.Run("empty_list", func(t *testing.T) {
		_, err := ParseBackends("")
		assert.Error(t, err)
	})
}

func TestBackendConfig_URLs(t *testing.T) {
	b := BackendConfig{ID: "server-1", Host: "app1", Port: 8001}

	assert.Equal(t, "http://app1:8001", b.BaseURL())
	assert.Equal(t, "app1:8001", b.Address())
	assert.Equal(t, "http://app1:8001/health", b.HealthURL())
}

func TestLBConfig_IsProduction(t *testing.T) {
	assert.True(t, (&LBConfig{Environment: "production"}).IsProduction())
	assert.True(t, (&LBConfig{Environment: "prod"}).IsProduction())
	assert.False(t, (&LBConfig{Environment: "development"}).IsProduction())
	assert.False(t, (&LBConfig{Environment: ""}).IsProduction())
}
