package web

// errors.go provides unified error response handling for the web layer.
//
// Every failed request is logged with its technical error and request ID,
// then answered with the mapped user message: an HTML fragment for HTMX,
// JSON for API clients and plain text otherwise.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/regexcol/internal/core"
	"github.com/JonMunkholm/regexcol/internal/transform"
	"github.com/JonMunkholm/regexcol/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Error carries the precise failure, Message and Action the friendly text.
type ErrorResponse struct {
	Error            string   `json:"error"`
	Message          string   `json:"message"`
	Action           string   `json:"action,omitempty"`
	Code             string   `json:"code"`
	AvailableColumns []string `json:"available_columns,omitempty"`
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyTransforms):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case transform.KindOf(err) != transform.KindUnknown, core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	resp := ErrorResponse{
		Error:            core.Detail(err),
		Message:          userMsg.Message,
		Action:           userMsg.Action,
		Code:             userMsg.Code,
		AvailableColumns: core.AvailableColumns(err),
	}
	if statusCode >= http.StatusInternalServerError && !core.IsUserFacing(err) {
		// Unknown failures never leak their text.
		resp.Error = userMsg.Message
	}

	switch {
	case isHTMX(r):
		s.renderErrorPartial(w, r, resp, statusCode)
	case wantsJSON(r):
		writeJSON(w, statusCode, resp)
	default:
		http.Error(w, resp.Error+" ("+resp.Code+")", statusCode)
	}
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, resp ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	err := templates.ErrorAlert(resp.Message, resp.Action, resp.Code, resp.Error, resp.AvailableColumns).
		Render(r.Context(), w)
	if err != nil {
		slog.Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
