// Package relay fans broadcast envelopes out to peer instances and
// feeds peers' envelopes back into the local registry, so subscribers
// connected to another node still receive progress events. The relay
// is optional; a single-node deployment runs without one.
package relay

import (
	"context"
	"time"

	json "github.com/json-iterator/go"
)

// Kind discriminates how an envelope is targeted.
type Kind string

const (
	KindTopic Kind = "topic"
	KindUser  Kind = "user"
)

// Envelope is the cross-node broadcast message.
type Envelope struct {
	NodeID        string          `json:"nodeId"`
	Kind          Kind            `json:"kind"`
	Target        string          `json:"target"`
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	ExcludeUserID string          `json:"excludeUserId,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Handler consumes envelopes published by peer nodes.
type Handler func(ctx context.Context, env *Envelope) error

// Relay distributes broadcast envelopes between instances.
type Relay interface {
	// Start begins consuming peer envelopes into handler.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and releases resources.
	Stop(ctx context.Context) error

	// Publish sends an envelope to all peer nodes. The relay stamps the
	// envelope with its own node id so peers can skip it.
	Publish(ctx context.Context, env *Envelope) error

	// Ping reports relay connectivity.
	Ping(ctx context.Context) error
}
