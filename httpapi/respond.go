package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type messageResponse struct {
	Message string `json:"message"`
	User    any    `json:"user,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError renders err through StatusFor. Server-side failures are logged
// with the request id; client errors are not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(r).WithError(err).WithField("status", status).Error("request failed")
	}
	writeErrorMessage(w, status, msg)
}

func (s *Server) requestLogger(r *http.Request) logrus.FieldLogger {
	return s.logger.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
}
