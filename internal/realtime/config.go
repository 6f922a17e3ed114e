package realtime

import (
	"time"

	"github.com/xraph/blueprint/internal/errors"
)

// Config contains the registry and transport tuning knobs.
type Config struct {
	// HeartbeatInterval is the period of the application-level ping task.
	HeartbeatInterval time.Duration
	// CleanupInterval is the period of the stale-connection eviction task.
	CleanupInterval time.Duration
	// StaleMultiplier sets the eviction threshold: a connection is stale
	// once its last activity is older than StaleMultiplier heartbeats.
	StaleMultiplier int

	// SendBufferSize bounds each connection's outbound queue.
	SendBufferSize int
	// MaxMessageSize bounds inbound websocket frames in bytes.
	MaxMessageSize int64

	WriteTimeout time.Duration
	// PingInterval is the protocol-level websocket ping period.
	PingInterval time.Duration
	// PongTimeout is the websocket read deadline, refreshed on pong.
	PongTimeout time.Duration

	// NodeID identifies this instance on the broadcast relay.
	NodeID string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		CleanupInterval:   60 * time.Second,
		StaleMultiplier:   5,
		SendBufferSize:    256,
		MaxMessageSize:    64 * 1024,
		WriteTimeout:      10 * time.Second,
		PingInterval:      54 * time.Second,
		PongTimeout:       60 * time.Second,
	}
}

// StaleThreshold is the inactivity age beyond which cleanup evicts a
// connection.
func (c Config) StaleThreshold() time.Duration {
	return time.Duration(c.StaleMultiplier) * c.HeartbeatInterval
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return errors.ErrInvalidConfig("heartbeat_interval", errors.New("must be positive"))
	}
	if c.CleanupInterval <= 0 {
		return errors.ErrInvalidConfig("cleanup_interval", errors.New("must be positive"))
	}
	if c.StaleMultiplier < 2 {
		return errors.ErrInvalidConfig("stale_multiplier", errors.New("must be at least 2"))
	}
	if c.SendBufferSize < 1 {
		return errors.ErrInvalidConfig("send_buffer_size", errors.New("must be at least 1"))
	}
	if c.PingInterval <= 0 {
		return errors.ErrInvalidConfig("ping_interval", errors.New("must be positive"))
	}
	if c.PongTimeout <= c.PingInterval {
		return errors.ErrInvalidConfig("pong_timeout", errors.New("must exceed ping_interval"))
	}
	if c.WriteTimeout <= 0 {
		return errors.ErrInvalidConfig("write_timeout", errors.New("must be positive"))
	}

	return nil
}
