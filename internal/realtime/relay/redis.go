package relay

import (
	"context"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
)

const broadcastChannel = "blueprint:broadcast:global"

// redisRelay implements Relay over Redis Pub/Sub. All instances share
// one channel; envelopes carry the publishing node id and each
// instance drops its own messages on receipt.
type redisRelay struct {
	client *redis.Client
	nodeID string
	logger logger.Logger

	mu      sync.Mutex
	pubsub  *redis.PubSub
	handler Handler
	stopCh  chan struct{}
	running bool
}

// NewRedisRelay creates a Redis-backed relay for this node.
func NewRedisRelay(client *redis.Client, nodeID string, log logger.Logger) Relay {
	return &redisRelay{
		client: client,
		nodeID: nodeID,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

func (r *redisRelay) Start(ctx context.Context, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("relay already running")
	}

	r.handler = handler
	r.pubsub = r.client.Subscribe(ctx, broadcastChannel)

	// Wait for the subscription to be set up so no peer envelope
	// published after Start returns is missed.
	if _, err := r.pubsub.Receive(ctx); err != nil {
		_ = r.pubsub.Close()
		r.pubsub = nil

		return errors.ErrRelayUnavailable(err)
	}

	go r.listen(ctx)

	r.running = true
	r.logger.Info("broadcast relay started",
		logger.String("node_id", r.nodeID),
		logger.String("channel", broadcastChannel),
	)

	return nil
}

func (r *redisRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}

	close(r.stopCh)

	if r.pubsub != nil {
		if err := r.pubsub.Close(); err != nil {
			return errors.ErrRelayUnavailable(err)
		}
	}

	r.running = false
	r.logger.Info("broadcast relay stopped", logger.String("node_id", r.nodeID))

	return nil
}

func (r *redisRelay) Publish(ctx context.Context, env *Envelope) error {
	env.NodeID = r.nodeID
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}

	data, err := json.Marshal(env)
	if err != nil {
		return errors.New("marshal relay envelope: " + err.Error())
	}

	if err := r.client.Publish(ctx, broadcastChannel, data).Err(); err != nil {
		return errors.ErrRelayUnavailable(err)
	}

	return nil
}

func (r *redisRelay) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.ErrRelayUnavailable(err)
	}

	return nil
}

func (r *redisRelay) listen(ctx context.Context) {
	ch := r.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handleMessage(ctx, msg)
		}
	}
}

func (r *redisRelay) handleMessage(ctx context.Context, msg *redis.Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Warn("dropping malformed relay envelope", logger.Error(err))
		return
	}

	// Skip envelopes published by this node.
	if env.NodeID == r.nodeID {
		return
	}

	if err := r.handler(ctx, &env); err != nil {
		r.logger.Error("relay handler failed",
			logger.String("kind", string(env.Kind)),
			logger.String("target", env.Target),
			logger.Error(err),
		)
	}
}
