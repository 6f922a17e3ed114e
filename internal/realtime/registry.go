// Package realtime tracks live client connections and fans events out
// to them. The registry owns every admitted connection and three
// indices over them (by id, by user, by topic); a message dispatcher
// handles inbound subscribe/unsubscribe/ping frames, and two periodic
// tasks keep the connection set live: a heartbeat that pings every
// open connection and a cleanup pass that evicts dead or idle ones.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	json "github.com/json-iterator/go"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/metrics"
	"github.com/xraph/blueprint/internal/realtime/relay"
)

// RegistryStats is a point-in-time summary of the registry for the
// admin stats endpoint. TotalConnections counts every tracked
// connection; ActiveConnections asks each transport whether it is open
// at the instant of the call, so a closed-but-not-yet-evicted
// connection counts in the total but not as active. Cleanup eviction
// is driven by last activity age as well, so the two views can
// disagree on purpose.
type RegistryStats struct {
	TotalConnections     int            `json:"totalConnections"`
	ActiveConnections    int            `json:"activeConnections"`
	SubscriptionsByTopic map[string]int `json:"subscriptionsByTopic"`
	ConnectionsByUser    map[string]int `json:"connectionsByUser"`
}

// Registry is the connection registry. A single mutex serializes all
// access to the three maps; timer callbacks and the dispatcher route
// through the same lock. Sends never happen under the lock.
type Registry struct {
	config  Config
	logger  logger.Logger
	metrics *metrics.RealtimeMetrics
	clock   clockwork.Clock
	relay   relay.Relay

	mu      sync.Mutex
	conns   map[string]*conn
	byUser  map[string]map[string]bool
	byTopic map[string]map[string]bool

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// Option configures optional registry collaborators.
type Option func(*Registry)

// WithClock injects the clock used for activity timestamps and the
// periodic tasks.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithRelay attaches a cross-node broadcast relay.
func WithRelay(rl relay.Relay) Option {
	return func(r *Registry) {
		r.relay = rl
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.RealtimeMetrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates a connection registry. Call Start to run the
// heartbeat and cleanup tasks.
func NewRegistry(config Config, log logger.Logger, opts ...Option) *Registry {
	if log == nil {
		log = logger.NewNoop()
	}

	r := &Registry{
		config:  config,
		logger:  log,
		clock:   clockwork.NewRealClock(),
		conns:   make(map[string]*conn),
		byUser:  make(map[string]map[string]bool),
		byTopic: make(map[string]map[string]bool),
		stopCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Admit registers a connection for userID and wires its reader
// goroutine. It always succeeds and returns the new connection id.
func (r *Registry) Admit(userID string, transport Transport) string {
	id := uuid.New().String()
	c := newConn(id, userID, transport, r.clock.Now())

	r.mu.Lock()
	r.conns[id] = c
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]bool)
	}
	r.byUser[userID][id] = true
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.TrackedConnections.Inc()
		r.metrics.ConnectionsTotal.Inc()
	}

	r.logger.Debug("connection admitted",
		logger.String("conn_id", id),
		logger.String("user_id", userID),
		logger.String("transport", transport.Name()),
	)

	go r.readLoop(c)

	return id
}

// readLoop consumes the transport's inbound stream. The stream closing
// is the disconnect signal; the connection is removed when it does.
func (r *Registry) readLoop(c *conn) {
	for data := range c.transport.Receive() {
		c.UpdateActivity(r.clock.Now())
		r.dispatch(c, data)
	}

	r.remove(c.id, "disconnect")
}

// Remove evicts a connection. Unknown ids are a no-op, so racing
// removal paths are safe.
func (r *Registry) Remove(connID string) {
	r.remove(connID, "requested")
}

func (r *Registry) remove(connID, reason string) {
	r.mu.Lock()

	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}

	delete(r.conns, connID)

	if ids, ok := r.byUser[c.userID]; ok {
		delete(ids, connID)
		if len(ids) == 0 {
			delete(r.byUser, c.userID)
		}
	}

	for topic := range c.subscriptions {
		if ids, ok := r.byTopic[topic]; ok {
			delete(ids, connID)
			if len(ids) == 0 {
				delete(r.byTopic, topic)
			}
		}
	}

	r.mu.Unlock()

	c.closeTransport()

	if r.metrics != nil {
		r.metrics.TrackedConnections.Dec()
		r.metrics.RemovalsTotal.WithLabelValues(reason).Inc()
	}

	r.logger.Debug("connection removed",
		logger.String("conn_id", connID),
		logger.String("user_id", c.userID),
		logger.String("reason", reason),
	)
}

// Subscribe adds the connection to a topic. Unknown connection ids are
// a no-op.
func (r *Registry) Subscribe(connID, topicID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}

	c.subscriptions[topicID] = true
	if r.byTopic[topicID] == nil {
		r.byTopic[topicID] = make(map[string]bool)
	}
	r.byTopic[topicID][connID] = true
}

// Unsubscribe removes the connection from a topic. Unknown connection
// ids and topics are a no-op.
func (r *Registry) Unsubscribe(connID, topicID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}

	delete(c.subscriptions, topicID)
	if ids, ok := r.byTopic[topicID]; ok {
		delete(ids, connID)
		if len(ids) == 0 {
			delete(r.byTopic, topicID)
		}
	}
}

// ConnectionsForUser returns a snapshot of the user's connection ids.
func (r *Registry) ConnectionsForUser(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}

	return ids
}

// SubscribersForTopic returns the distinct user ids with at least one
// connection subscribed to the topic.
func (r *Registry) SubscribersForTopic(topicID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	users := make([]string, 0, len(r.byTopic[topicID]))

	for id := range r.byTopic[topicID] {
		c, ok := r.conns[id]
		if !ok || seen[c.userID] {
			continue
		}
		seen[c.userID] = true
		users = append(users, c.userID)
	}

	return users
}

// Stats summarizes the registry.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := RegistryStats{
		TotalConnections:     len(r.conns),
		SubscriptionsByTopic: make(map[string]int, len(r.byTopic)),
		ConnectionsByUser:    make(map[string]int, len(r.byUser)),
	}

	for _, c := range r.conns {
		if c.transport.IsOpen() {
			stats.ActiveConnections++
		}
	}
	for topic, ids := range r.byTopic {
		stats.SubscriptionsByTopic[topic] = len(ids)
	}
	for user, ids := range r.byUser {
		stats.ConnectionsByUser[user] = len(ids)
	}

	return stats
}

// BroadcastToTopic sends one event to every connection subscribed to
// the topic, skipping connections owned by excludeUserID (empty string
// excludes nobody). Per-connection send failures are logged and
// isolated. Returns the number of successful sends on this instance.
func (r *Registry) BroadcastToTopic(topicID string, event Event, excludeUserID string) int {
	sent := r.broadcastLocal(topicID, event, excludeUserID)
	r.publishRelay(relay.KindTopic, topicID, event, excludeUserID)

	return sent
}

// SendToUser sends one event to every connection owned by the user.
// Returns the number of successful sends on this instance.
func (r *Registry) SendToUser(userID string, event Event) int {
	sent := r.sendToUserLocal(userID, event)
	r.publishRelay(relay.KindUser, userID, event, "")

	return sent
}

func (r *Registry) broadcastLocal(topicID string, event Event, excludeUserID string) int {
	r.mu.Lock()
	ids := r.byTopic[topicID]
	if len(ids) == 0 {
		r.mu.Unlock()
		return 0
	}

	targets := make([]*conn, 0, len(ids))
	for id := range ids {
		c, ok := r.conns[id]
		if !ok {
			continue
		}
		if excludeUserID != "" && c.userID == excludeUserID {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return 0
	}

	payload, err := encodeFrame(event.Type, event.Data, r.clock.Now())
	if err != nil {
		r.logger.Error("failed to encode broadcast event",
			logger.String("topic_id", topicID),
			logger.String("type", string(event.Type)),
			logger.Error(err),
		)

		return 0
	}

	return r.deliver(targets, payload, event.Type)
}

func (r *Registry) sendToUserLocal(userID string, event Event) int {
	r.mu.Lock()
	ids := r.byUser[userID]
	if len(ids) == 0 {
		r.mu.Unlock()
		return 0
	}

	targets := make([]*conn, 0, len(ids))
	for id := range ids {
		if c, ok := r.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return 0
	}

	payload, err := encodeFrame(event.Type, event.Data, r.clock.Now())
	if err != nil {
		r.logger.Error("failed to encode event",
			logger.String("user_id", userID),
			logger.String("type", string(event.Type)),
			logger.Error(err),
		)

		return 0
	}

	return r.deliver(targets, payload, event.Type)
}

// deliver writes one pre-marshaled payload to each target. Successful
// sends refresh the connection's activity.
func (r *Registry) deliver(targets []*conn, payload []byte, typ FrameType) int {
	sent := 0
	now := r.clock.Now()

	for _, c := range targets {
		if err := c.transport.Send(payload); err != nil {
			r.logger.Error("failed to deliver event",
				logger.String("conn_id", c.id),
				logger.String("type", string(typ)),
				logger.Error(err),
			)
			if r.metrics != nil {
				r.metrics.SendFailures.Inc()
			}

			continue
		}

		sent++
		c.UpdateActivity(now)
		if r.metrics != nil {
			r.metrics.EventsSent.WithLabelValues(string(typ)).Inc()
		}
	}

	return sent
}

func (r *Registry) publishRelay(kind relay.Kind, target string, event Event, excludeUserID string) {
	if r.relay == nil {
		return
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		r.logger.Error("failed to encode relay envelope",
			logger.String("target", target),
			logger.Error(err),
		)

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env := &relay.Envelope{
		Kind:          kind,
		Target:        target,
		Type:          string(event.Type),
		Data:          data,
		ExcludeUserID: excludeUserID,
	}

	if err := r.relay.Publish(ctx, env); err != nil {
		r.logger.Warn("relay publish failed",
			logger.String("target", target),
			logger.Error(err),
		)
	}
}

// handleRelay re-broadcasts a peer node's envelope to local
// connections only; publishing back to the relay here would loop.
func (r *Registry) handleRelay(_ context.Context, env *relay.Envelope) error {
	event := Event{Type: FrameType(env.Type), Data: env.Data}

	switch env.Kind {
	case relay.KindTopic:
		r.broadcastLocal(env.Target, event, env.ExcludeUserID)
	case relay.KindUser:
		r.sendToUserLocal(env.Target, event)
	}

	return nil
}

// Start launches the heartbeat and cleanup tasks and, when a relay is
// attached, begins consuming peer envelopes.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.ErrRegistryClosed("start")
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	if r.relay != nil {
		if err := r.relay.Start(ctx, r.handleRelay); err != nil {
			return err
		}
	}

	r.wg.Add(2)
	go r.heartbeatLoop()
	go r.cleanupLoop()

	r.logger.Info("realtime registry started",
		logger.Duration("heartbeat_interval", r.config.HeartbeatInterval),
		logger.Duration("cleanup_interval", r.config.CleanupInterval),
		logger.Duration("stale_threshold", r.config.StaleThreshold()),
	)

	return nil
}

// Shutdown stops both periodic tasks, detaches the relay, and removes
// every connection, closing its transport.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	wasStarted := r.started
	r.mu.Unlock()

	if wasStarted {
		close(r.stopCh)
		r.wg.Wait()
	}

	if r.relay != nil {
		if err := r.relay.Stop(ctx); err != nil {
			r.logger.Error("failed to stop relay", logger.Error(err))
		}
	}

	for _, id := range r.connectionIDs() {
		r.remove(id, "shutdown")
	}

	r.logger.Info("realtime registry stopped")

	return nil
}

func (r *Registry) connectionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}

	return ids
}

func (r *Registry) heartbeatLoop() {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.Chan():
			r.heartbeat()
		}
	}
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.Chan():
			r.cleanup()
		}
	}
}

// heartbeat pings every open connection. A failed ping is logged but
// never removes the connection; that is cleanup's job.
func (r *Registry) heartbeat() {
	r.mu.Lock()
	targets := make([]*conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c.transport.IsOpen() {
			targets = append(targets, c)
		}
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	payload, err := encodeFrame(FramePing, nil, r.clock.Now())
	if err != nil {
		r.logger.Error("failed to encode heartbeat", logger.Error(err))
		return
	}

	for _, c := range targets {
		if err := c.transport.Send(payload); err != nil {
			r.logger.Debug("heartbeat send failed",
				logger.String("conn_id", c.id),
				logger.Error(err),
			)

			continue
		}

		if r.metrics != nil {
			r.metrics.HeartbeatsSent.Inc()
		}
	}
}

// cleanup evicts connections whose transport is no longer open, and
// connections idle past the stale threshold even when their transport
// still reports open.
func (r *Registry) cleanup() {
	cutoff := r.clock.Now().Add(-r.config.StaleThreshold())

	type eviction struct {
		id     string
		reason string
	}

	r.mu.Lock()
	evictions := make([]eviction, 0)
	for id, c := range r.conns {
		switch {
		case !c.transport.IsOpen():
			evictions = append(evictions, eviction{id: id, reason: "closed"})
		case c.GetLastActivity().Before(cutoff):
			evictions = append(evictions, eviction{id: id, reason: "stale"})
		}
	}
	r.mu.Unlock()

	for _, e := range evictions {
		r.remove(e.id, e.reason)
	}

	if len(evictions) > 0 {
		r.logger.Info("evicted connections",
			logger.Int("count", len(evictions)),
		)
	}
}
