package server

import (
	"net/http"

	"github.com/xraph/blueprint/internal/assistant"
)

// chatRequest is one assistant turn: the user's message plus the state
// accumulated on previous turns, round-tripped by the client.
type chatRequest struct {
	Message string                      `json:"message"`
	State   assistant.ConversationState `json:"state"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	reply, err := s.deps.Assistant.Reply(r.Context(), req.State, req.Message)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, reply)
}
