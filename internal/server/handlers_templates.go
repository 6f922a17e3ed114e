package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/blueprint/internal/template"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	filter := template.Filter{
		ProtocolType: r.URL.Query().Get("protocolType"),
		Language:     r.URL.Query().Get("language"),
	}

	s.respondJSON(w, http.StatusOK, s.deps.Templates.List(filter))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.deps.Templates.Get(chi.URLParam(r, "templateID"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tpl)
}
