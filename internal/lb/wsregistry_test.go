package lb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSRegistry_Add(t *testing.T) {
	reg := NewWSRegistry()

	h1 := reg.Add("server-1", "42")
	h2 := reg.Add("server-1", "43")
	h3 := reg.Add("server-2", "")

	assert.Equal(t, "conn_1", h1.ID)
	assert.Equal(t, "conn_2", h2.ID)
	assert.Equal(t, "conn_3", h3.ID)

	assert.Equal(t, 2, reg.CountByBackend("server-1"))
	assert.Equal(t, 1, reg.CountByBackend("server-2"))
	assert.ElementsMatch(t, []string{"conn_1", "conn_2"}, reg.ListByBackend("server-1"))
}

func TestWSRegistry_Remove(t *testing.T) {
	reg := NewWSRegistry()

	h := reg.Add("server-1", "42")
	reg.Remove(h.ID)
	assert.Equal(t, 0, reg.CountByBackend("server-1"))

	// Removing twice is a no-op.
	reg.Remove(h.ID)
	reg.Remove("conn_999")
}

func TestWSRegistry_CloseByBackend(t *testing.T) {
	reg := NewWSRegistry()

	h1 := reg.Add("server-1", "42")
	h2 := reg.Add("server-1", "43")
	h3 := reg.Add("server-2", "44")

	assert.Equal(t, 2, reg.CloseByBackend("server-1"))

	select {
	case <-h1.CloseSignal():
	default:
		t.Fatal("conn_1 close signal not delivered")
	}
	select {
	case <-h2.CloseSignal():
	default:
		t.Fatal("conn_2 close signal not delivered")
	}
	select {
	case <-h3.CloseSignal():
		t.Fatal("server-2 connection must not be drained")
	default:
	}

	// Already signaled handles are not counted again.
	assert.Equal(t, 0, reg.CloseByBackend("server-1"))
}

func TestWSRegistry_IDsNotReused(t *testing.T) {
	reg := NewWSRegistry()

	h := reg.Add("server-1", "")
	reg.Remove(h.ID)

	next := reg.Add("server-1", "")
	require.NotEqual(t, h.ID, next.ID)
}
