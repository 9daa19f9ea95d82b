package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRequestsTotal   = "requests_total"
	MetricRequestDuration = "request_duration_seconds"
)

var CounterRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "edindigena",
		Subsystem: "http",
		Name:      MetricRequestsTotal,
		Help:      "HTTP requests by route, method and status.",
	},
	[]string{"route", "method", "status"},
)

var HistogramRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "edindigena",
		Subsystem: "http",
		Name:      MetricRequestDuration,
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route"},
)

func init() {
	prometheus.MustRegister(CounterRequests)
	prometheus.MustRegister(HistogramRequestDuration)
}

// Metrics records request counts and latency keyed by the matched route
// template, so /reports/{id} is one series regardless of id.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrw := wrap(w)
		next.ServeHTTP(wrw, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		CounterRequests.WithLabelValues(route, r.Method, strconv.Itoa(wrw.status)).Inc()
		HistogramRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
