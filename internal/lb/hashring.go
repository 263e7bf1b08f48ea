package lb

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// virtualNodes is the number of ring positions per replica. More positions
// spread users more evenly at the cost of a larger (still tiny) ring.
const virtualNodes = 150

type ringEntry struct {
	hash    uint64
	backend *Backend
}

// HashRing maps user ids onto replicas with consistent hashing. The ring
// itself is immutable after construction; liveness is read from the backends
// at lookup time.
type HashRing struct {
	entries []ringEntry
}

// NewHashRing builds a ring with virtualNodes positions per replica. Keys are
// "{id}-{i}" so positions are stable across restarts with the same config.
func NewHashRing(backends []*Backend) *HashRing {
	r := &HashRing{
		entries: make([]ringEntry, 0, len(backends)*virtualNodes),
	}
	for _, b := range backends {
		for i := 0; i < virtualNodes; i++ {
			r.entries = append(r.entries, ringEntry{
				hash:    hashKey(fmt.Sprintf("%s-%d", b.ID, i)),
				backend: b,
			})
		}
	}
	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].hash < r.entries[j].hash
	})
	return r
}

// ForUser returns the first healthy replica clockwise from the user's hash,
// or nil when no replica is healthy. The same user id always lands on the
// same replica while that replica stays healthy.
func (r *HashRing) ForUser(userID string) *Backend {
	if len(r.entries) == 0 {
		return nil
	}

	h := hashKey(userID)
	start := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].hash >= h
	})

	for i := 0; i < len(r.entries); i++ {
		entry := r.entries[(start+i)%len(r.entries)]
		if entry.backend.Healthy() {
			return entry.backend
		}
	}
	return nil
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
