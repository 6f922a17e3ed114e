package realtime

import (
	"sync"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
)

// fakeTransport is an in-memory Transport for registry tests. Inbound
// frames are injected through the receive channel; outbound payloads
// are recorded for inspection.
type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	open    bool
	closed  bool
	receive chan []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		open:    true,
		receive: make(chan []byte, 16),
	}
}

func (t *fakeTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}
	if !t.open {
		return errors.ErrTransportClosed()
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	t.sent = append(t.sent, buf)

	return nil
}

func (t *fakeTransport) Receive() <-chan []byte {
	return t.receive
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.open
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.closed = true
		t.open = false
		close(t.receive)
	}

	return nil
}

func (t *fakeTransport) Name() string {
	return "fake"
}

// markDead flips the transport to closed without tearing down the
// receive channel, mimicking a socket that died under the reader.
func (t *fakeTransport) markDead() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = false
}

func (t *fakeTransport) failSends(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sendErr = err
}

func (t *fakeTransport) sentPayloads() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([][]byte, len(t.sent))
	copy(out, t.sent)

	return out
}

func (t *fakeTransport) sentFrames(tb testing.TB) []Frame {
	tb.Helper()

	payloads := t.sentPayloads()
	frames := make([]Frame, 0, len(payloads))
	for _, p := range payloads {
		var f Frame
		require.NoError(tb, json.Unmarshal(p, &f))
		frames = append(frames, f)
	}

	return frames
}

// inject pushes a raw inbound payload and returns once the dispatcher
// has replied at least wantSent frames in total on this transport.
func (t *fakeTransport) inject(tb testing.TB, payload string, wantSent int) {
	tb.Helper()

	t.receive <- []byte(payload)
	require.Eventually(tb, func() bool {
		return len(t.sentPayloads()) >= wantSent
	}, 2*time.Second, 10*time.Millisecond)
}
