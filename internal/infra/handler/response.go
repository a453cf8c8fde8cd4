package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"labsite/internal/platform/logger"
)

var (
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
	errInternal         = errors.New("internal error")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError hides the cause of 5xx responses.
func writeError(w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		message = errInternal.Error()
	}
	writeJSON(w, status, errorResponse{Error: message})
}

// writeInternalError logs err with the request logger and answers with a
// masked 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

// writeUpstreamError reports a failed upstream call with its message.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("upstream failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, errNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
}
