package realtime

import (
	"net/http"
	"sync"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
)

// SSETransport adapts a server-sent-events response to the Transport
// interface so SSE clients receive broadcasts alongside websocket
// clients. It is write-only: the receive channel never carries a frame
// and closes when the client disconnects, which is what tells the
// registry to remove the connection.
type SSETransport struct {
	w       http.ResponseWriter
	flusher http.Flusher
	req     *http.Request
	logger  logger.Logger

	send    chan []byte
	receive chan []byte

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewSSETransport prepares an SSE response on w. The caller must keep
// the handler goroutine alive by calling Serve, which blocks until the
// client disconnects or the transport is closed.
func NewSSETransport(w http.ResponseWriter, r *http.Request, config Config, log logger.Logger) (*SSETransport, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSETransport{
		w:       w,
		flusher: flusher,
		req:     r,
		logger:  log,
		send:    make(chan []byte, config.SendBufferSize),
		receive: make(chan []byte),
		done:    make(chan struct{}),
	}, nil
}

func (t *SSETransport) Name() string { return "sse" }

func (t *SSETransport) Send(data []byte) error {
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

func (t *SSETransport) Receive() <-chan []byte {
	return t.receive
}

func (t *SSETransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return !t.closed
}

func (t *SSETransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)

	return nil
}

// Serve writes queued frames to the response until the client
// disconnects or Close is called. It must run on the handler goroutine
// and closes the receive channel on return.
func (t *SSETransport) Serve() {
	defer func() {
		t.Close()
		close(t.receive)
	}()

	for {
		select {
		case <-t.req.Context().Done():
			return

		case <-t.done:
			return

		case data := <-t.send:
			if err := t.writeEvent(data); err != nil {
				t.logger.Debug("sse write error",
					logger.String("remote_addr", t.req.RemoteAddr),
					logger.Error(err),
				)

				return
			}
		}
	}
}

func (t *SSETransport) writeEvent(data []byte) error {
	if _, err := t.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := t.w.Write(data); err != nil {
		return err
	}
	if _, err := t.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	t.flusher.Flush()

	return nil
}
