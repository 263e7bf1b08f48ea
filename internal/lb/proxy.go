package lb

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatgrid/internal/observability"
)

// forwarderName is the value clients and backends see in the x-forwarded-by
// and x-served-by headers. Kept verbatim for wire compatibility with existing
// deployments.
const forwarderName = "rust-load-balancer"

// Request headers added on the way to the backend
const (
	HeaderForwardedBy     = "x-forwarded-by"
	HeaderForwardedServer = "x-forwarded-server"
	HeaderLBSecret        = "x-lb-secret"
	HeaderServedBy        = "x-served-by"
)

// hopByHopHeaders never cross the proxy in either direction
var hopByHopHeaders = map[string]struct{}{
	"connection":          {},
	"upgrade":             {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
}

func isHopByHop(name string) bool {
	_, ok := hopByHopHeaders[strings.ToLower(name)]
	return ok
}

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// Proxy forwards plain HTTP requests to a backend replica
type Proxy struct {
	client   *http.Client
	lbSecret string
}

// NewProxy creates a proxy with a pooled transport
func NewProxy(lbSecret string) *Proxy {
	return &Proxy{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		lbSecret: lbSecret,
	}
}

// Forward relays the request to the backend and writes its response back.
// The backend's connection counter brackets the exchange.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, backend *Backend) {
	if _, ok := allowedMethods[r.Method]; !ok {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadRequest)
		return
	}

	target := backend.BaseURL + r.URL.RequestURI()
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	for name, values := range r.Header {
		if isHopByHop(name) {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Host = backend.Address
	req.Header.Set(HeaderForwardedBy, forwarderName)
	req.Header.Set(HeaderForwardedServer, backend.ID)
	req.Header.Set(HeaderLBSecret, p.lbSecret)

	backend.Inc()
	defer backend.Dec()

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("backend request failed",
			slog.String("backend", backend.ID),
			slog.String("error", err.Error()))
		observability.ProxiedRequestsTotal.WithLabelValues(backend.ID, "502").Inc()
		http.Error(w, `{"error":"bad gateway"}`, http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if isHopByHop(name) {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(HeaderServedBy, forwarderName)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("failed to relay response body",
			slog.String("backend", backend.ID),
			slog.String("error", err.Error()))
	}

	observability.ProxiedRequestsTotal.WithLabelValues(backend.ID, strconv.Itoa(resp.StatusCode)).Inc()
}
