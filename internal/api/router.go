package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Frontier/internal/config"
	"github.com/MikeSquared-Agency/Frontier/internal/ingest"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

func NewRouter(s store.Store, g *ingest.Ingestor, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))

	studies := NewStudiesHandler(s, logger)
	trials := NewTrialsHandler(s, g)
	fronts := NewFrontHandler(s, cfg.Plot, logger)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/studies", studies.Create)
		r.Get("/studies", studies.List)
		r.Get("/studies/{id}", studies.Get)

		r.Post("/studies/{id}/trials", trials.Create)
		r.Get("/studies/{id}/trials", trials.List)
		r.Post("/studies/{id}/trials/{number}/complete", trials.Complete)
		r.Post("/studies/{id}/trials/{number}/fail", trials.Fail)

		r.Get("/studies/{id}/pareto-front", fronts.Front)
		r.Get("/studies/{id}/plot/pareto-front", fronts.Plot)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Delete("/studies/{id}", studies.Delete)
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
