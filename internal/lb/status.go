package lb

import (
	"encoding/json"
	"net/http"
	"time"

	"chatgrid/internal/config"
)

// BackendStatus is the per-replica view exposed on /status
type BackendStatus struct {
	ID                string    `json:"id"`
	Address           string    `json:"address"`
	Healthy           bool      `json:"healthy"`
	ActiveConnections int64     `json:"active_connections"`
	ProxiedWebSockets int       `json:"proxied_websockets"`
	LastProbe         time.Time `json:"last_probe"`
}

// Health reports the load balancer's own liveness
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Status returns a JSON snapshot of the pool and the effective configuration
func Status(pool *Pool, registry *WSRegistry, cfg *config.LBConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backends := make([]BackendStatus, 0, len(pool.List()))
		for _, b := range pool.List() {
			backends = append(backends, BackendStatus{
				ID:                b.ID,
				Address:           b.Address,
				Healthy:           b.Healthy(),
				ActiveConnections: b.Active(),
				ProxiedWebSockets: registry.CountByBackend(b.ID),
				LastProbe:         b.LastProbe(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"backends":  backends,
			"config": map[string]interface{}{
				"health_check_interval": cfg.HealthCheckInterval.String(),
				"health_check_timeout":  cfg.HealthCheckTimeout.String(),
				"sticky_cookie_name":    cfg.StickyCookieName,
				"sticky_cookie_max_age": cfg.StickyCookieMaxAge,
				"rate_limit_per_second": cfg.RateLimitPerSecond,
				"rate_limit_burst":      cfg.RateLimitBurst,
			},
		})
	}
}
