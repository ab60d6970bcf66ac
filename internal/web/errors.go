package web

// errors.go maps service errors to HTTP responses.
//
// Every error is logged with the request ID and answered with the
// user-facing message from core.MapError, rendered for the client type:
// an alert fragment for HTMX, an ErrorResponse for JSON, plain text
// otherwise.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sitestock/supplytrack/internal/core"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
	"github.com/sitestock/supplytrack/internal/tabular"
	"github.com/sitestock/supplytrack/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadBody     = errors.New("invalid request body")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func errorBody(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var verr *engine.ValidationError
	var rerr *engine.ReconciliationError
	switch {
	case errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge), errors.Is(err, tabular.ErrTooManyRows):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &rerr):
		return http.StatusInternalServerError
	case errors.As(err, &verr),
		errors.Is(err, engine.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidQuantity),
		errors.Is(err, engine.ErrInvalidPrice),
		errors.Is(err, tabular.ErrEmptyFile),
		errors.Is(err, tabular.ErrUnreadable),
		errors.Is(err, errBadBody),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	// Errors without a catalogue entry are unexpected.
	level := slog.LevelWarn
	if !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
	case wantsJSON(r):
		writeJSON(w, status, errorBody(msg))
	default:
		http.Error(w, core.FormatUserError(err), status)
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client expects a JSON body. API routes
// default to JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
