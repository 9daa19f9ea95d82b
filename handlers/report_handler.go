package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/config"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/reports"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const reportTimeout = 60 * time.Second

// ReportRunner runs a single report by id.
type ReportRunner interface {
	Run(ctx context.Context, id string) (*reports.Result, error)
}

type ReportHandler struct {
	runner ReportRunner
	cache  *config.ReportCache
	logger *slog.Logger
}

func NewReportHandler(runner ReportRunner, cache *config.ReportCache, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{runner: runner, cache: cache, logger: logger}
}

type ReportSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Collection string `json:"collection"`
}

type ReportResponse struct {
	Report     string          `json:"report"`
	Title      string          `json:"title"`
	Count      int             `json:"count"`
	Rows       json.RawMessage `json:"rows"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  string          `json:"timestamp"`
}

// ListReports handles GET /reports.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	all := reports.All()
	out := make([]ReportSummary, 0, len(all))
	for _, rep := range all {
		out = append(out, ReportSummary{ID: rep.ID, Title: rep.Title, Collection: rep.Collection})
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"reports": out,
		"count":   len(out),
	})
}

// GetReport handles GET /reports/{id}. Responses are cached per id;
// refresh=true drops the cached body and recomputes it.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	key := config.CacheKey("report", id)

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if refresh {
		h.cache.Delete(key)
	} else if body, ok := h.cache.Get(key); ok {
		writeBody(w, body, "HIT")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	res, err := h.runner.Run(ctx, id)
	if err != nil {
		if errors.Is(err, reports.ErrUnknownReport) {
			sendErrorResponse(w, "Unknown report: "+id, http.StatusNotFound)
			return
		}
		h.logger.Error("Report failed", "report", id, "error", err)
		sendErrorResponse(w, "Error running report", http.StatusInternalServerError)
		return
	}

	rows, err := reports.RowsJSON(res.Rows)
	if err != nil {
		h.logger.Error("Error encoding report rows", "report", id, "error", err)
		sendErrorResponse(w, "Error processing results", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err = enc.Encode(ReportResponse{
		Report:     res.Report.ID,
		Title:      res.Report.Title,
		Count:      len(res.Rows),
		Rows:       rows,
		DurationMS: res.Duration.Milliseconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("Error encoding response", "report", id, "error", err)
		sendErrorResponse(w, "Error processing results", http.StatusInternalServerError)
		return
	}

	h.cache.Set(key, buf.Bytes())
	writeBody(w, buf.Bytes(), "MISS")
}

func writeBody(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
