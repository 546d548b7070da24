// Package server builds the HTTP handlers the CLI listens with.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/marketstream/common/httputil"
	"github.com/telhawk-systems/marketstream/common/middleware"
	"github.com/telhawk-systems/marketstream/internal/feedsim"
)

// NewRouter mounts the simulator's channel endpoint with health and metrics
// routes. Every other path also reaches the channel endpoint, so clients may
// use any socket path.
func NewRouter(feed *feedsim.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/socket/websocket", feed)
	mux.Handle("/", feed)

	// Health endpoints
	mux.HandleFunc("/healthz", feed.Health)
	mux.HandleFunc("/readyz", feed.Health)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}

// HealthCheck is one dependency reported on /healthz.
type HealthCheck struct {
	Name    string
	Healthy func() bool
}

// NewMetricsRouter serves /metrics and /healthz for the stream commands.
// /healthz answers 503 while any check is failing.
func NewMetricsRouter(checks ...HealthCheck) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status, code := "ok", http.StatusOK
		body := map[string]interface{}{}
		if len(checks) > 0 {
			results := make(map[string]string, len(checks))
			for _, c := range checks {
				if c.Healthy() {
					results[c.Name] = "ok"
					continue
				}
				results[c.Name] = "down"
				status, code = "degraded", http.StatusServiceUnavailable
			}
			body["checks"] = results
		}
		body["status"] = status
		httputil.WriteJSON(w, code, body)
	})
	return middleware.RequestID(mux)
}
