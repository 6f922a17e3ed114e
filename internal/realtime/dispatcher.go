package realtime

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xraph/blueprint/internal/logger"
)

// dispatch handles one inbound frame from a connection. Malformed and
// unsupported frames get an error reply on the same connection; no
// inbound frame ever terminates it.
func (r *Registry) dispatch(c *conn, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.logger.Debug("unparseable inbound frame",
			logger.String("conn_id", c.id),
			logger.Error(err),
		)
		r.sendError(c, ErrCodeInvalidMessage, "invalid message format")

		return
	}

	switch frame.Type {
	case FrameSubscribe:
		r.handleSubscription(c, frame.Data, true)
	case FrameUnsubscribe:
		r.handleSubscription(c, frame.Data, false)
	case FramePing:
		r.sendFrame(c, FramePong, nil)
	default:
		r.sendError(c, ErrCodeUnsupportedType,
			fmt.Sprintf("unsupported message type: %s", frame.Type))
	}
}

func (r *Registry) handleSubscription(c *conn, data json.RawMessage, subscribe bool) {
	var req SubscriptionRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			r.sendError(c, ErrCodeInvalidMessage, "invalid subscription payload")
			return
		}
	}

	if req.ProjectID == "" {
		r.sendError(c, ErrCodeMissingProjectID, "projectId is required")
		return
	}

	confirmation := FrameSubscribed
	if subscribe {
		r.Subscribe(c.id, req.ProjectID)
	} else {
		r.Unsubscribe(c.id, req.ProjectID)
		confirmation = FrameUnsubscribed
	}

	r.logger.Debug("subscription changed",
		logger.String("conn_id", c.id),
		logger.String("user_id", c.userID),
		logger.String("project_id", req.ProjectID),
		logger.Bool("subscribed", subscribe),
	)

	r.sendFrame(c, confirmation, SubscriptionEvent{ProjectID: req.ProjectID})
}

// sendFrame writes a single frame to one connection. Failures are
// logged and swallowed; a reply that cannot be delivered is not worth
// tearing the connection down for.
func (r *Registry) sendFrame(c *conn, typ FrameType, data any) {
	payload, err := encodeFrame(typ, data, r.clock.Now())
	if err != nil {
		r.logger.Error("failed to encode frame",
			logger.String("conn_id", c.id),
			logger.String("type", string(typ)),
			logger.Error(err),
		)

		return
	}

	if err := c.transport.Send(payload); err != nil {
		r.logger.Debug("failed to send frame",
			logger.String("conn_id", c.id),
			logger.String("type", string(typ)),
			logger.Error(err),
		)
	}
}

func (r *Registry) sendError(c *conn, code, message string) {
	r.sendFrame(c, FrameError, ErrorEvent{Code: code, Message: message})
}
