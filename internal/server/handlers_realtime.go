package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: true,
	CheckOrigin:       func(*http.Request) bool { return true },
}

// handleWebSocket upgrades the request and admits the connection into
// the registry. The registry owns the connection from here on; the
// handler returns immediately after admission.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Debug("websocket upgrade failed",
			logger.String("remote_addr", r.RemoteAddr),
			logger.Error(err),
		)

		return
	}

	transport := realtime.NewWebSocketTransport(conn, s.deps.RealtimeConfig, s.logger)
	s.deps.Registry.Admit(userID(r), transport)
}

// handleSSE admits a write-only SSE connection and blocks serving it
// until the client disconnects. The client cannot send frames on this
// transport, so subscriptions come via query parameters at admission.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	transport, err := realtime.NewSSETransport(w, r, s.deps.RealtimeConfig, s.logger)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", err.Error())
		return
	}

	// The stream outlives any server-wide write timeout.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	connID := s.deps.Registry.Admit(userID(r), transport)
	for _, topic := range r.URL.Query()["projectId"] {
		if topic != "" {
			s.deps.Registry.Subscribe(connID, topic)
		}
	}

	transport.Serve()
}

// handleRealtimeStats reports registry counters for admin visibility.
func (s *Server) handleRealtimeStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.deps.Registry.Stats())
}
