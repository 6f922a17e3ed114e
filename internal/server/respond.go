package server

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/logger"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", logger.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.respondJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: chimw.GetReqID(r.Context()),
	}})
}

// respondDomainError maps a domain error onto an HTTP status and the
// JSON error envelope.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetHTTPStatusCode(err)
	switch {
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsForbidden(err):
		status = http.StatusForbidden
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.IsBuildInProgress(err):
		status = http.StatusConflict
	}

	code := "INTERNAL_ERROR"
	message := "internal server error"

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}

	s.respondError(w, r, status, code, message)
}

// decodeJSON reads the request body into v, limited to 1 MiB.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	limited := http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return errors.ErrValidationError("body", err)
	}

	return nil
}
