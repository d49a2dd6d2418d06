package http

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"go.uber.org/zap"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Internal failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
