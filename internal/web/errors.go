package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status comes from statusFor and the message from core.MapError
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON, or as an HTML fragment for HTMX

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
// Result is set when a run produced a partial result before failing.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	Code    string       `json:"code"`
	Result  *core.Result `json:"result,omitempty"`
}

// statusFor picks the HTTP status for a pipeline or storage error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnreadableFile),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnknownEntityKind):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err with request context and writes a user-facing
// response. A non-nil result is included so callers still see the
// per-row accounting of a failed run.
func respondError(w http.ResponseWriter, r *http.Request, err error, result *core.Result) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", msg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", msg.Code)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = errorAlert(msg).Render(r.Context(), w)
		return
	}

	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Result:  result,
	})
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// respondErrorLogOnly logs an error that happened after the response
// started, when nothing can be sent to the client anymore.
func respondErrorLogOnly(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("response write failed", "path", r.URL.Path, "error", err)
}
