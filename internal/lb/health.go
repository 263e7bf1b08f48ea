package lb

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chatgrid/internal/observability"
)

// Prober periodically checks every replica's health endpoint. On a
// healthy-to-unhealthy transition it drains the replica's proxied WebSocket
// sessions through the registry.
type Prober struct {
	pool     *Pool
	registry *WSRegistry
	interval time.Duration
	client   *http.Client
}

// NewProber creates a prober over the given pool and registry
func NewProber(pool *Pool, registry *WSRegistry, interval, timeout time.Duration) *Prober {
	return &Prober{
		pool:     pool,
		registry: registry,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
	}
}

// Run probes immediately, then on every interval tick until ctx is done
func (p *Prober) Run(ctx context.Context) {
	p.probeAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probeAll(ctx)
		}
	}
}

func (p *Prober) probeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, backend := range p.pool.List() {
		wg.Add(1)
		go func(b *Backend) {
			defer wg.Done()
			p.probe(ctx, b)
		}(backend)
	}
	wg.Wait()
}

func (p *Prober) probe(ctx context.Context, b *Backend) {
	healthy := p.check(ctx, b)
	b.TouchProbe(time.Now())

	wasHealthy := b.Healthy()
	if healthy == wasHealthy {
		return
	}

	b.SetHealthy(healthy)
	if healthy {
		observability.BackendHealthy.WithLabelValues(b.ID).Set(1)
		slog.Info("backend recovered", slog.String("backend", b.ID))
		return
	}

	observability.BackendHealthy.WithLabelValues(b.ID).Set(0)
	drained := p.registry.CloseByBackend(b.ID)
	slog.Warn("backend unhealthy",
		slog.String("backend", b.ID),
		slog.Int("drained_connections", drained))
}

func (p *Prober) check(ctx context.Context, b *Backend) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
