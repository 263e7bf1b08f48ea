package lb

import (
	"sync"
	"time"

	"chatgrid/internal/config"
)

// Backend is one app-server replica tracked by the registry
type Backend struct {
	ID      string
	BaseURL string
	Address string

	mu        sync.Mutex
	healthy   bool
	lastProbe time.Time
	active    int64
}

// Healthy reports the replica's current health
func (b *Backend) Healthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthy
}

// SetHealthy updates the replica's health
func (b *Backend) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = healthy
}

// TouchProbe records the time of the latest health probe
func (b *Backend) TouchProbe(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastProbe = t
}

// LastProbe returns the time of the latest health probe
func (b *Backend) LastProbe() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastProbe
}

// Inc increments the replica's active connection counter
func (b *Backend) Inc() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active++
}

// Dec decrements the replica's active connection counter, never below zero
func (b *Backend) Dec() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active > 0 {
		b.active--
	}
}

// Active returns the replica's active connection count
func (b *Backend) Active() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Pool is the backend registry. The replica set is fixed at startup; only
// per-replica state (health, probe time, connection counts) mutates.
type Pool struct {
	backends []*Backend
	byID     map[string]*Backend
}

// NewPool builds the registry from configuration. Replicas start healthy and
// get corrected by the first probe cycle.
func NewPool(configs []config.BackendConfig) *Pool {
	p := &Pool{
		byID: make(map[string]*Backend, len(configs)),
	}
	for _, c := range configs {
		b := &Backend{
			ID:      c.ID,
			BaseURL: c.BaseURL(),
			Address: c.Address(),
			healthy: true,
		}
		p.backends = append(p.backends, b)
		p.byID[b.ID] = b
	}
	return p
}

// List returns every replica in configuration order
func (p *Pool) List() []*Backend {
	return p.backends
}

// ByID returns the replica with the given id, or nil
func (p *Pool) ByID(id string) *Backend {
	return p.byID[id]
}

// Healthy returns the currently healthy replicas in configuration order
func (p *Pool) Healthy() []*Backend {
	var out []*Backend
	for _, b := range p.backends {
		if b.Healthy() {
			out = append(out, b)
		}
	}
	return out
}

// LeastLoaded returns the replica with the fewest active connections. Healthy
// replicas are preferred; when none is healthy every replica is considered so
// the result is nil only for an empty pool.
func (p *Pool) LeastLoaded() *Backend {
	candidates := p.Healthy()
	if len(candidates) == 0 {
		candidates = p.backends
	}

	var best *Backend
	for _, b := range candidates {
		if best == nil || b.Active() < best.Active() {
			best = b
		}
	}
	return best
}
