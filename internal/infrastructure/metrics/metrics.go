// Package metrics holds the Prometheus collectors of the API client and the
// dev server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskee_client_requests_total",
			Help: "API requests sent by the client, by route template and status",
		},
		[]string{"method", "route", "status"},
	)
	clientDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskee_client_request_duration_seconds",
			Help:    "API request duration in seconds as seen by the client",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	serverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskee_devserver_request_duration_seconds",
			Help:    "Dev server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskee_devserver_login_attempts_total",
			Help: "Dev server login attempts by outcome",
		},
		[]string{"success"},
	)
)

// ObserveClientRequest records one client request. status is the HTTP
// status code, or "error" when no response arrived.
func ObserveClientRequest(method, route, status string, d time.Duration) {
	clientRequests.WithLabelValues(method, route, status).Inc()
	clientDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Middleware records dev server request duration by chi route pattern, so
// IDs in paths do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		serverDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
	})
}

// RecordLogin counts a dev server login attempt.
func RecordLogin(success bool) {
	loginAttempts.WithLabelValues(strconv.FormatBool(success)).Inc()
}
