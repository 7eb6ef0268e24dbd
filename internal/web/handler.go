package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether the broker session is up.
type HealthFunc func() bool

// CreateHandler serves Prometheus metrics on /metrics and the session state
// on /healthz.
func CreateHandler(healthy HealthFunc) http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if healthy != nil && !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("disconnected\n"))
			return
		}
		w.Write([]byte("ok\n"))
	})

	return r
}
