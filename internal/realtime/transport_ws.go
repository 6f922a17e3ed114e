package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
)

// wsTransport adapts a gorilla websocket connection to the Transport
// interface. A single writer goroutine drains the send channel, so
// frame order per connection is preserved; the reader goroutine feeds
// the receive channel and closes it when the socket dies.
type wsTransport struct {
	conn   *websocket.Conn
	logger logger.Logger

	send    chan []byte
	receive chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration
	pongTimeout  time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewWebSocketTransport wraps an upgraded websocket connection and
// starts its read and write pumps.
func NewWebSocketTransport(conn *websocket.Conn, config Config, log logger.Logger) Transport {
	t := &wsTransport{
		conn:         conn,
		logger:       log,
		send:         make(chan []byte, config.SendBufferSize),
		receive:      make(chan []byte, config.SendBufferSize),
		writeTimeout: config.WriteTimeout,
		pingInterval: config.PingInterval,
		pongTimeout:  config.PongTimeout,
	}

	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}

	go t.readPump()
	go t.writePump()

	return t
}

func (t *wsTransport) Name() string { return "websocket" }

func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return errors.ErrTransportClosed()
	}

	select {
	case t.send <- data:
		return nil
	default:
		return errors.ErrSendBufferFull()
	}
}

func (t *wsTransport) Receive() <-chan []byte {
	return t.receive
}

func (t *wsTransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return !t.closed
}

// Close marks the transport closed and closes the send channel. The
// write pump drains any buffered frames, sends a close frame, and
// tears down the socket; the read pump then unblocks and closes the
// receive channel.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.send)

	return nil
}

func (t *wsTransport) readPump() {
	defer func() {
		t.Close()
		close(t.receive)
	}()

	if t.pongTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.pongTimeout))
		t.conn.SetPongHandler(func(string) error {
			return t.conn.SetReadDeadline(time.Now().Add(t.pongTimeout))
		})
	}

	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				t.logger.Debug("websocket read error",
					logger.String("remote_addr", t.conn.RemoteAddr().String()),
					logger.Error(err),
				)
			}

			return
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			t.receive <- data
		}
	}
}

func (t *wsTransport) writePump() {
	ticker := time.NewTicker(t.pingInterval)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case data, ok := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))

			if !ok {
				_ = t.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.logger.Debug("websocket write error",
					logger.String("remote_addr", t.conn.RemoteAddr().String()),
					logger.Error(err),
				)
				t.Close()

				return
			}

		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))

			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.Close()
				return
			}
		}
	}
}
