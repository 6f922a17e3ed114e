package realtime

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeat_PingsOpenConnections(t *testing.T) {
	r := newTestRegistry(t)

	open1 := newFakeTransport()
	open2 := newFakeTransport()
	dead := newFakeTransport()
	r.Admit("u1", open1)
	r.Admit("u2", open2)
	r.Admit("u3", dead)
	dead.markDead()

	r.heartbeat()

	for _, ft := range []*fakeTransport{open1, open2} {
		frames := ft.sentFrames(t)
		require.Len(t, frames, 1)
		assert.Equal(t, FramePing, frames[0].Type)
	}
	assert.Empty(t, dead.sentPayloads())
}

func TestHeartbeat_SendFailureDoesNotRemove(t *testing.T) {
	r := newTestRegistry(t)

	broken := newFakeTransport()
	broken.failSends(assert.AnError)
	r.Admit("u1", broken)

	r.heartbeat()

	assert.Equal(t, 1, r.Stats().TotalConnections)
}

func TestHeartbeat_DoesNotRefreshActivity(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := newTestRegistry(t, WithClock(clk))

	ft := newFakeTransport()
	id := r.Admit("u1", ft)
	admitted := clk.Now()

	clk.Advance(10 * time.Second)
	r.heartbeat()

	require.Len(t, ft.sentFrames(t), 1)

	r.mu.Lock()
	c := r.conns[id]
	r.mu.Unlock()
	assert.Equal(t, admitted, c.GetLastActivity())
}

func TestCleanup_EvictsClosedTransports(t *testing.T) {
	r := newTestRegistry(t)

	ft := newFakeTransport()
	id := r.Admit("u1", ft)
	r.Subscribe(id, "p1")
	ft.markDead()

	r.cleanup()

	assert.Zero(t, r.Stats().TotalConnections)
	assert.Empty(t, r.SubscribersForTopic("p1"))
	assert.Zero(t, r.BroadcastToTopic("p1", progressEvent("p1", "generating", 10), ""))
}

func TestCleanup_EvictsStaleOpenConnections(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := newTestRegistry(t, WithClock(clk))

	ft := newFakeTransport()
	r.Admit("u1", ft)
	require.True(t, ft.IsOpen())

	clk.Advance(r.config.StaleThreshold() + time.Second)
	r.cleanup()

	assert.Zero(t, r.Stats().TotalConnections)
	assert.False(t, ft.IsOpen())
}

func TestCleanup_KeepsRecentlyActiveConnections(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := newTestRegistry(t, WithClock(clk))

	r.Admit("u1", newFakeTransport())

	clk.Advance(r.config.StaleThreshold() - time.Second)
	r.cleanup()

	assert.Equal(t, 1, r.Stats().TotalConnections)
}

func TestCleanup_EvictsDespiteDeliveredHeartbeats(t *testing.T) {
	clk := clockwork.NewFakeClock()
	r := newTestRegistry(t, WithClock(clk))

	ft := newFakeTransport()
	r.Admit("u1", ft)

	// A client that accepts pings but never sends anything goes stale:
	// delivery alone is not activity.
	for i := 0; i < 6; i++ {
		clk.Advance(r.config.HeartbeatInterval)
		r.heartbeat()
	}
	require.Len(t, ft.sentFrames(t), 6)

	r.cleanup()

	assert.Zero(t, r.Stats().TotalConnections)
}
