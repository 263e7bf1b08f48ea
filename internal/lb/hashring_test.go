package lb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRing_Deterministic(t *testing.T) {
	pool := testPool(3)
	ring := NewHashRing(pool.List())

	first := ring.ForUser("42")
	require.NotNil(t, first)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first.ID, ring.ForUser("42").ID)
	}
}

func TestHashRing_StableAcrossRebuilds(t *testing.T) {
	poolA := testPool(3)
	poolB := testPool(3)

	ringA := NewHashRing(poolA.List())
	ringB := NewHashRing(poolB.List())

	for _, userID := range []string{"1", "2", "42", "999", "31337"} {
		assert.Equal(t, ringA.ForUser(userID).ID, ringB.ForUser(userID).ID,
			"user %s should map identically on identical rings", userID)
	}
}

func TestHashRing_SkipsUnhealthy(t *testing.T) {
	pool := testPool(3)
	ring := NewHashRing(pool.List())

	pinned := ring.ForUser("42")
	require.NotNil(t, pinned)

	pinned.SetHealthy(false)
	rerouted := ring.ForUser("42")
	require.NotNil(t, rerouted)
	assert.NotEqual(t, pinned.ID, rerouted.ID)

	// Recovery restores the original mapping.
	pinned.SetHealthy(true)
	assert.Equal(t, pinned.ID, ring.ForUser("42").ID)
}

func TestHashRing_NoneHealthy(t *testing.T) {
	pool := testPool(2)
	ring := NewHashRing(pool.List())

	for _, b := range pool.List() {
		b.SetHealthy(false)
	}
	assert.Nil(t, ring.ForUser("42"))
}

func TestHashRing_Empty(t *testing.T) {
	ring := NewHashRing(nil)
	assert.Nil(t, ring.ForUser("42"))
}

func TestHashRing_Dispersion(t *testing.T) {
	pool := testPool(3)
	ring := NewHashRing(pool.List())

	counts := make(map[string]int)
	for i := 0; i < 3000; i++ {
		b := ring.ForUser(string(rune('a'+i%26)) + string(rune('0'+i%10)) + string(rune('A'+i%26)))
		require.NotNil(t, b)
		counts[b.ID]++
	}

	// With 150 vnodes per replica no backend should be starved.
	for id, n := range counts {
		assert.Greater(t, n, 0, "backend %s never chosen", id)
	}
	assert.Len(t, counts, 3)
}
