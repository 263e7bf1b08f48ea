package lb

import (
	"net/http"

	"chatgrid/internal/config"
	"chatgrid/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Server bundles the routing pipeline behind one http.Handler
type Server struct {
	cfg      *config.LBConfig
	pool     *Pool
	ring     *HashRing
	registry *WSRegistry
	router   *Router
	proxy    *Proxy
	wsProxy  *WSProxy
	limiter  *middleware.RateLimiter
}

// NewServer wires the registry, ring, router and proxies from configuration
func NewServer(cfg *config.LBConfig) *Server {
	pool := NewPool(cfg.Backends)
	ring := NewHashRing(pool.List())
	registry := NewWSRegistry()

	return &Server{
		cfg:      cfg,
		pool:     pool,
		ring:     ring,
		registry: registry,
		router:   NewRouter(pool, ring, cfg.StickyCookieName, cfg.StickyCookieMaxAge, cfg.IsProduction()),
		proxy:    NewProxy(cfg.LBSecret),
		wsProxy:  NewWSProxy(registry, cfg.LBSecret),
		limiter:  middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
}

// Pool exposes the backend registry, used by the prober
func (s *Server) Pool() *Pool {
	return s.pool
}

// Registry exposes the WebSocket registry, used by the prober
func (s *Server) Registry() *WSRegistry {
	return s.registry
}

// Stop releases background resources
func (s *Server) Stop() {
	s.limiter.Stop()
}

// Handler builds the chi router. /health and /status are served locally;
// /ws/* upgrades and splices; everything else is forwarded.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.limiter.Middleware())

	r.Get("/health", Health)
	r.Get("/status", Status(s.pool, s.registry, s.cfg))
	r.HandleFunc("/ws/*", s.serveWS)
	r.NotFound(s.serveHTTP)

	return r
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	backend := s.router.Route(r)
	if backend == nil {
		http.Error(w, `{"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	// The cookie must be stamped before the proxied status line goes out.
	s.router.WriteSticky(w, r, backend)
	s.proxy.Forward(w, r, backend)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	backend := s.router.Route(r)
	if backend == nil {
		http.Error(w, `{"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	// The upgrade response is the only place to pin a client whose first
	// contact is the WebSocket route.
	responseHeader := http.Header{}
	if cookie := s.router.StickyCookie(r, backend); cookie != nil {
		responseHeader.Add("Set-Cookie", cookie.String())
	}

	userID, _ := UserIDFromSession(r)
	s.wsProxy.Serve(w, r, backend, userID, responseHeader)
}
