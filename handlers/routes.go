package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the API on api, normally the /api/v1 subrouter.
func RegisterRoutes(api *mux.Router, rh *ReportHandler, hh *HealthHandler) {
	api.HandleFunc("/health", hh.Check).Methods(http.MethodGet)
	api.HandleFunc("/reports", rh.ListReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", rh.GetReport).Methods(http.MethodGet)
}
