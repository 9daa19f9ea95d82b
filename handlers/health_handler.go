package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	DBStatus  string `json:"db_status"`
	Database  string `json:"database"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

type HealthHandler struct {
	ping     func(ctx context.Context) error
	database string
}

// NewHealthHandler reports the store as connected when ping succeeds.
func NewHealthHandler(ping func(ctx context.Context) error, database string) *HealthHandler {
	return &HealthHandler{ping: ping, database: database}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		DBStatus:  "connected",
		Database:  h.database,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.ping(r.Context()); err != nil {
		response.Status = "error"
		response.DBStatus = "connection_error"
		response.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	sendJSON(w, code, response)
}
