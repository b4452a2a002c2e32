package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/martin-trajanovski/go-graphql-todos/pkg/health"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/middleware"
)

// NewRouter assembles the HTTP surface: the operation dispatcher on
// POST /api plus health and metrics endpoints. The rate limit applies to the
// operation endpoint only, so probes and scrapes are never throttled.
func NewRouter(h *Handler, healthHandler *health.Handler, cors middleware.CORSConfig, limit middleware.RateLimitConfig, log *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogging(log))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.PrometheusMetrics("todos-api"))

	r.With(middleware.RateLimit(limit, log)).Post("/api", h.Dispatch)

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, http.StatusNotFound, envelope{Error: &errorBody{
			Message:    "Nice try!",
			StatusCode: http.StatusNotFound,
		}})
	})

	return r
}
