package lb

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ConnectionHandle identifies one proxied WebSocket session
type ConnectionHandle struct {
	ID        string
	BackendID string
	UserID    string

	closeOnce sync.Once
	closeCh   chan struct{}
}

// CloseSignal is closed when the registry drains this connection
func (h *ConnectionHandle) CloseSignal() <-chan struct{} {
	return h.closeCh
}

func (h *ConnectionHandle) signalClose() bool {
	signaled := false
	h.closeOnce.Do(func() {
		close(h.closeCh)
		signaled = true
	})
	return signaled
}

// WSRegistry tracks live proxied WebSocket sessions so they can be drained
// when their backend goes unhealthy.
type WSRegistry struct {
	mu        sync.RWMutex
	conns     map[string]*ConnectionHandle
	byBackend map[string]map[string]*ConnectionHandle
	counter   atomic.Uint64
}

// NewWSRegistry creates an empty registry
func NewWSRegistry() *WSRegistry {
	return &WSRegistry{
		conns:     make(map[string]*ConnectionHandle),
		byBackend: make(map[string]map[string]*ConnectionHandle),
	}
}

// Add registers a new session and returns its handle. Ids are monotonic and
// never reused within a process lifetime.
func (r *WSRegistry) Add(backendID, userID string) *ConnectionHandle {
	h := &ConnectionHandle{
		ID:        fmt.Sprintf("conn_%d", r.counter.Add(1)),
		BackendID: backendID,
		UserID:    userID,
		closeCh:   make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[h.ID] = h
	if r.byBackend[backendID] == nil {
		r.byBackend[backendID] = make(map[string]*ConnectionHandle)
	}
	r.byBackend[backendID][h.ID] = h

	return h
}

// Remove deregisters a session. Safe to call more than once.
func (r *WSRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.conns[id]
	if !ok {
		return
	}
	delete(r.conns, id)
	if set := r.byBackend[h.BackendID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byBackend, h.BackendID)
		}
	}
}

// ListByBackend returns the connection ids pinned to a backend
func (r *WSRegistry) ListByBackend(backendID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byBackend[backendID]))
	for id := range r.byBackend[backendID] {
		ids = append(ids, id)
	}
	return ids
}

// CountByBackend returns the number of sessions pinned to a backend
func (r *WSRegistry) CountByBackend(backendID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byBackend[backendID])
}

// CloseByBackend delivers the close signal to every session pinned to the
// backend and returns how many sessions were signaled. Delivery never blocks;
// sessions already signaled are skipped.
func (r *WSRegistry) CloseByBackend(backendID string) int {
	r.mu.RLock()
	handles := make([]*ConnectionHandle, 0, len(r.byBackend[backendID]))
	for _, h := range r.byBackend[backendID] {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	signaled := 0
	for _, h := range handles {
		if h.signalClose() {
			signaled++
		}
	}
	return signaled
}
