package web

// errors.go writes JSON error responses.
//
// Every error body has the shape {"ok": false, "error": "...", "code": "..."}
// so the storage webhook caller and the dashboard share one contract. The
// technical error is logged with the request ID; clients only see the mapped
// user message from core.MapError.

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
}

// respondError maps err to a user message, logs the technical detail and
// writes the JSON error body.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err,
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:  msg.Message,
		Code:   msg.Code,
		Action: msg.Action,
	})
}

// writeError writes a JSON error with a fixed message and no code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
