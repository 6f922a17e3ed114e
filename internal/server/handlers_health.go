package server

import (
	"context"
	"net/http"
	"time"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

// handleHealthz reports liveness. When a relay is configured its
// connectivity is part of the check, so a node cut off from its peers
// drops out of rotation.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Relay != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := s.deps.Relay.Ping(ctx); err != nil {
			herr := errors.ErrHealthCheckFailed("relay", err)
			s.logger.Warn("health check failed", logger.Error(herr))
			s.respondError(w, r, http.StatusServiceUnavailable, herr.Code, herr.Message)

			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
