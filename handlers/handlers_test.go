package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/config"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/reports"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type stubRunner struct {
	calls int32
	err   error
}

func (s *stubRunner) Run(_ context.Context, id string) (*reports.Result, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	rep, err := reports.Find(id)
	if err != nil {
		return nil, err
	}
	return &reports.Result{
		Report: rep,
		Rows: []bson.D{{
			{Key: "Município", Value: "Barcelos"},
			{Key: "Score", Value: 412.5},
		}},
		Duration: 3 * time.Millisecond,
	}, nil
}

func newRouter(runner ReportRunner, ping func(context.Context) error) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	RegisterRoutes(api,
		NewReportHandler(runner, config.NewReportCache(time.Minute), nil),
		NewHealthHandler(ping, "educacao_indigena"),
	)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func okPing(context.Context) error { return nil }

func TestListReports(t *testing.T) {
	rec := get(t, newRouter(&stubRunner{}, okPing), "/api/v1/reports")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reports []ReportSummary `json:"reports"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, "painel-norte", body.Reports[0].ID)
	assert.Equal(t, "Escolas", body.Reports[0].Collection)
}

func TestGetReport_CachesAndRefreshes(t *testing.T) {
	runner := &stubRunner{}
	r := newRouter(runner, okPing)

	rec := get(t, r, "/api/v1/reports/polo-educacional")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "polo-educacional", resp.Report)
	assert.Equal(t, 1, resp.Count)
	assert.JSONEq(t, `[{"Município":"Barcelos","Score":412.5}]`, string(resp.Rows))

	rec = get(t, r, "/api/v1/reports/polo-educacional")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&runner.calls))

	rec = get(t, r, "/api/v1/reports/polo-educacional?refresh=true")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, atomic.LoadInt32(&runner.calls))
}

func TestGetReport_FailedRefreshDropsCachedBody(t *testing.T) {
	runner := &stubRunner{}
	r := newRouter(runner, okPing)

	rec := get(t, r, "/api/v1/reports/alerta-municipios")
	require.Equal(t, http.StatusOK, rec.Code)

	runner.err = errors.New("connection reset")
	rec = get(t, r, "/api/v1/reports/alerta-municipios?refresh=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = get(t, r, "/api/v1/reports/alerta-municipios")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 3, atomic.LoadInt32(&runner.calls))
}

func TestGetReport_Errors(t *testing.T) {
	rec := get(t, newRouter(&stubRunner{}, okPing), "/api/v1/reports/inexistente")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "inexistente")

	rec = get(t, newRouter(&stubRunner{err: errors.New("server selection timeout")}, okPing), "/api/v1/reports/painel-norte")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "server selection")
}

func TestHealth(t *testing.T) {
	rec := get(t, newRouter(&stubRunner{}, okPing), "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "connected", resp.DBStatus)
	assert.Equal(t, "educacao_indigena", resp.Database)

	down := func(context.Context) error { return errors.New("no reachable servers") }
	rec = get(t, newRouter(&stubRunner{}, down), "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no reachable servers")
}
