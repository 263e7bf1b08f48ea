package lb

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chatgrid/internal/observability"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// WSProxy splices WebSocket sessions between clients and backend replicas
type WSProxy struct {
	registry *WSRegistry
	lbSecret string
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
}

// NewWSProxy creates a WebSocket proxy backed by the given registry
func NewWSProxy(registry *WSRegistry, lbSecret string) *WSProxy {
	return &WSProxy{
		registry: registry,
		lbSecret: lbSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Serve upgrades the client connection, dials the backend and splices frames
// in both directions until either side closes or the registry drains the
// backend. The client upgrade succeeds regardless of the backend dial
// outcome; a failed dial shows up as an immediate close. responseHeader is
// sent with the 101 response, which is how the sticky cookie reaches clients
// whose first contact is the upgrade.
func (p *WSProxy) Serve(w http.ResponseWriter, r *http.Request, backend *Backend, userID string, responseHeader http.Header) {
	clientConn, err := p.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		slog.Warn("client upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer clientConn.Close()

	backendConn, err := p.dial(r, backend)
	if err != nil {
		slog.Warn("backend dial failed",
			slog.String("backend", backend.ID),
			slog.String("error", err.Error()))
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backend unavailable")
		_ = clientConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
		return
	}
	defer backendConn.Close()

	handle := p.registry.Add(backend.ID, userID)
	defer p.registry.Remove(handle.ID)

	backend.Inc()
	defer backend.Dec()
	observability.ProxiedWebSocketsActive.WithLabelValues(backend.ID).Inc()
	defer observability.ProxiedWebSocketsActive.WithLabelValues(backend.ID).Dec()

	slog.Info("websocket session open",
		slog.String("conn_id", handle.ID),
		slog.String("backend", backend.ID),
		slog.String("user_id", userID))

	done := make(chan struct{}, 2)
	go func() {
		splice(backendConn, clientConn)
		done <- struct{}{}
	}()
	go func() {
		splice(clientConn, backendConn)
		done <- struct{}{}
	}()

	select {
	case <-done:
	case <-handle.CloseSignal():
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "backend draining")
		_ = clientConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
	}
	// Closing both conns unblocks whichever splice is still reading.
	clientConn.Close()
	backendConn.Close()

	slog.Info("websocket session closed",
		slog.String("conn_id", handle.ID),
		slog.String("backend", backend.ID))
}

// dial opens the backend leg. Only the session cookie crosses; everything
// else a client sent stays on the client leg.
func (p *WSProxy) dial(r *http.Request, backend *Backend) (*websocket.Conn, error) {
	target := "ws://" + backend.Address + r.URL.RequestURI()

	header := http.Header{}
	if cookie, err := r.Cookie("session"); err == nil {
		header.Set("Cookie", "session="+cookie.Value)
	}
	header.Set(HeaderLBSecret, p.lbSecret)
	header.Set(HeaderForwardedBy, forwarderName)

	conn, resp, err := p.dialer.Dial(target, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// splice copies frames from src to dst until a read or write fails. Close
// frames are forwarded with their code and reason; ping and pong frames are
// forwarded rather than answered locally.
func splice(dst, src *websocket.Conn) {
	src.SetPingHandler(func(appData string) error {
		return dst.WriteControl(websocket.PingMessage, []byte(appData), time.Now().Add(wsWriteWait))
	})
	src.SetPongHandler(func(appData string) error {
		return dst.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(wsWriteWait))
	})

	for {
		msgType, data, err := src.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				msg := websocket.FormatCloseMessage(closeErr.Code, closeErr.Text)
				_ = dst.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
			}
			return
		}
		if err := dst.WriteMessage(msgType, data); err != nil {
			return
		}
	}
}
