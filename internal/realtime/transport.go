package realtime

// Transport is one channel to a client. Implementations own the
// underlying socket; the registry owns the Transport and is the only
// caller of Send and Close after admission.
type Transport interface {
	// Send enqueues one serialized frame for delivery. It must not block
	// on the peer: implementations buffer writes and fail fast when the
	// buffer is full or the transport is closed.
	Send(data []byte) error

	// Receive returns the inbound frame stream. The channel closes when
	// the peer disconnects or the transport shuts down. Write-only
	// transports close it on disconnect without ever delivering a frame.
	Receive() <-chan []byte

	// IsOpen reports whether the transport still accepts sends.
	IsOpen() bool

	// Close tears down the transport. Safe to call more than once.
	Close() error

	// Name labels the transport kind in logs ("websocket", "sse").
	Name() string
}
