package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/imgtransfer"
)

// WriteText writes a plain text response.
func WriteText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(message))
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error to the response status and the fixed message
// sent to the client. Details stay in the server log.
func StatusFor(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "Payload Too Large"
	case errors.Is(err, imgtransfer.ErrNotFound):
		return http.StatusNotFound, "File Not Found"
	case errors.Is(err, imgtransfer.ErrInvalidInput):
		return http.StatusBadRequest, "Bad Request"
	case errors.Is(err, imgtransfer.ErrPermissionDenied):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Gateway Timeout"
	case errors.Is(err, imgtransfer.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "Service Unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// HandleError logs err and writes the matching plain text error response.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := StatusFor(err)

	level := slog.LevelWarn
	if code >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		level = slog.LevelError
	}
	logger(r).Log(r.Context(), level, "request error", "status", code, "err", err)

	WriteText(w, code, message)
}

func logger(r *http.Request) *slog.Logger {
	return slog.Default().With(
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}
