// Package httptransport assembles the public HTTP surface: the middleware
// chain, probes, metrics and the authenticated API routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idgraph/internal/platform/metrics"
	"idgraph/pkg/platform/httputil"
	"idgraph/pkg/platform/middleware/auth"
	"idgraph/pkg/platform/middleware/metadata"
	"idgraph/pkg/platform/middleware/request"
	"idgraph/pkg/platform/middleware/requesttime"
)

const readinessTimeout = 2 * time.Second

// Registrar mounts a module's routes on an authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Validator      auth.JWTValidator
	RequestTimeout time.Duration
	Checks         []HealthCheck
}

// NewRouter wires the middleware chain and every route. Probes and /metrics
// are unauthenticated; modules are mounted behind bearer auth.
func NewRouter(cfg Config, modules ...Registrar) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger, cfg.Metrics))
	r.Use(request.Logger(logger, cfg.Metrics))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(logger, cfg.Checks))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(auth.RequireAuth(cfg.Validator, logger))
		for _, m := range modules {
			m.Register(r)
		}
	})
	return r
}

func readiness(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", err)
				results[c.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, results)
	}
}
