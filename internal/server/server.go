// Package server exposes the HTTP surface: project and template CRUD,
// assistant chat, build kickoff, websocket and SSE admission into the
// realtime registry, and the operational endpoints.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/blueprint/internal/assistant"
	"github.com/xraph/blueprint/internal/config"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/metrics"
	"github.com/xraph/blueprint/internal/pipeline"
	"github.com/xraph/blueprint/internal/project"
	"github.com/xraph/blueprint/internal/realtime"
	"github.com/xraph/blueprint/internal/realtime/relay"
	"github.com/xraph/blueprint/internal/template"
	"github.com/xraph/blueprint/internal/tracing"
)

// Deps carries the collaborators the server routes requests to. All
// fields except Tracing and Metrics are required.
type Deps struct {
	Logger    logger.Logger
	Registry  *realtime.Registry
	Projects  *project.Store
	Templates *template.Catalog
	Runner    *pipeline.Runner
	Assistant *assistant.Assistant

	// Relay is optional; when present it participates in health checks.
	Relay relay.Relay

	RealtimeConfig realtime.Config

	Metrics        *metrics.HTTPMetrics
	PromRegistry   *prometheus.Registry
	Tracing        *tracing.Provider
	TracingEnabled bool
}

// Server is the HTTP server. Construct with New, then Run blocks until
// the context is cancelled.
type Server struct {
	cfg    config.ServerConfig
	logger logger.Logger
	deps   Deps

	handler http.Handler
}

// New builds the server and its route table.
func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoop()
	}

	s := &Server{
		cfg:    cfg,
		logger: deps.Logger.Named("server"),
		deps:   deps,
	}
	s.handler = s.routes()

	return s
}

// Handler returns the root handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", logger.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil

	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down",
		logger.Duration("timeout", s.cfg.ShutdownTimeout),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}

func (s *Server) metricsHandler() http.Handler {
	if s.deps.PromRegistry == nil {
		return http.NotFoundHandler()
	}

	return metrics.Handler(s.deps.PromRegistry)
}
