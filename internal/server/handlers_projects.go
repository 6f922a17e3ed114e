package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/blueprint/internal/project"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var input project.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	p, err := s.deps.Projects.Create(r.Context(), userID(r), input)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects := s.deps.Projects.List(r.Context(), userID(r))
	s.respondJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Projects.Get(r.Context(), userID(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var input project.UpdateInput
	if err := decodeJSON(r, &input); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	p, err := s.deps.Projects.Update(r.Context(), userID(r), chi.URLParam(r, "projectID"), input)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Projects.Delete(r.Context(), userID(r), chi.URLParam(r, "projectID")); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleStartBuild kicks off an asynchronous build. Progress streams to
// the project's realtime topic; the response only acknowledges the
// start.
func (s *Server) handleStartBuild(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	if err := s.deps.Runner.StartBuild(r.Context(), userID(r), projectID); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"projectId": projectID,
		"status":    "building",
	})
}

func (s *Server) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Runner.Files(r.Context(), userID(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, files)
}
