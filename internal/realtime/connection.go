package realtime

import (
	"sync"
	"time"
)

// conn is one admitted connection. Map membership and the
// subscriptions set are guarded by the registry mutex, never conn.mu;
// conn.mu only covers lastActivity, which the reader goroutine and the
// broadcast path touch without the registry lock.
type conn struct {
	id          string
	userID      string
	transport   Transport
	connectedAt time.Time

	subscriptions map[string]bool

	mu           sync.RWMutex
	lastActivity time.Time

	closeOnce sync.Once
}

func newConn(id, userID string, transport Transport, now time.Time) *conn {
	return &conn{
		id:            id,
		userID:        userID,
		transport:     transport,
		connectedAt:   now,
		subscriptions: make(map[string]bool),
		lastActivity:  now,
	}
}

func (c *conn) GetLastActivity() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastActivity
}

func (c *conn) UpdateActivity(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActivity = now
}

// closeTransport closes the underlying transport exactly once.
func (c *conn) closeTransport() {
	c.closeOnce.Do(func() {
		_ = c.transport.Close()
	})
}
