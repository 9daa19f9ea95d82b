package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

func sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func sendErrorResponse(w http.ResponseWriter, message string, code int) {
	slog.Warn("Request failed", "error", message, "code", code)

	sendJSON(w, code, map[string]interface{}{
		"error":     message,
		"code":      code,
		"status":    http.StatusText(code),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
