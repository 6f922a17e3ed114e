package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	if s.deps.Tracing != nil && s.deps.TracingEnabled {
		r.Use(s.deps.Tracing.Middleware("blueprint"))
	}
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware())
	}

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())

	// Realtime admission. Identity required; the registry indexes
	// connections by user.
	r.Group(func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Get("/ws", s.handleWebSocket)
		r.Get("/events", s.handleSSE)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireIdentity)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Get("/{projectID}", s.handleGetProject)
			r.Put("/{projectID}", s.handleUpdateProject)
			r.Delete("/{projectID}", s.handleDeleteProject)
			r.Post("/{projectID}/build", s.handleStartBuild)
			r.Get("/{projectID}/files", s.handleProjectFiles)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Get("/{templateID}", s.handleGetTemplate)
		})

		r.Post("/chat", s.handleChat)

		r.Get("/realtime/stats", s.handleRealtimeStats)
	})

	return r
}
