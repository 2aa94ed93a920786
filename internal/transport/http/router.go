// Package http assembles the service's HTTP surface: middleware chain,
// verification endpoint, health probes, and the metrics endpoint.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certverify/internal/platform/config"
	"certverify/internal/platform/health"
	"certverify/internal/platform/metrics"
	"certverify/internal/platform/middleware"
	verifyhandler "certverify/internal/verify/handler"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Verify  *verifyhandler.Handler
	Health  *health.Handler
}

// NewRouter builds the service router.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(httpMetrics(deps.Metrics))
	}

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/verify", deps.Verify.Routes())

	return r
}

// httpMetrics records request counts and latency per route pattern.
func httpMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = r.URL.Path
			}
			m.IncrementHTTPRequests(endpoint, http.StatusText(rec.status))
			m.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
