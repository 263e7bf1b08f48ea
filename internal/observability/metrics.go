package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// App server HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Fan-out metrics
	ChatConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Number of live chat WebSocket sessions on this replica",
		},
		[]string{"chat_id"},
	)

	BusPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_publishes_total",
			Help: "Total number of payloads published to the bus",
		},
		[]string{"channel_kind"},
	)

	SuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_total",
			Help: "Total number of suggestion requests by outcome",
		},
		[]string{"outcome"},
	)

	// Load balancer metrics
	ProxiedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lb_proxied_requests_total",
			Help: "Total number of HTTP requests forwarded to a backend",
		},
		[]string{"backend", "status"},
	)

	BackendHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lb_backend_healthy",
			Help: "Whether a backend replica is currently healthy (1) or not (0)",
		},
		[]string{"backend"},
	)

	ProxiedWebSocketsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lb_proxied_websockets_active",
			Help: "Number of WebSocket sessions currently spliced through the LB",
		},
		[]string{"backend"},
	)
)
