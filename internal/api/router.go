// Package api exposes the Top-Level Orchestrator over HTTP: a single
// synchronous /plan endpoint alongside a /health liveness check. This is a
// transport surface only — it adds no planning behavior beyond what
// internal/orchestrator already does. Grounded on the chi-based composition
// in KhalidEchchahid-transit-app/backend/main.go (router, chi/middleware,
// rs/cors) and on the handler/DTO split in
// erenceh-delivery-route-api/internal/api.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/config"
	"github.com/groceryroute/tourplanner/internal/orchestrator"
)

// NewRouter wires the orchestrator behind a small HTTP surface.
func NewRouter(orch *orchestrator.Orchestrator, doc config.Document, log *logrus.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware(log))
	r.Use(middleware.Timeout(5 * time.Minute))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	})
	r.Use(c.Handler)

	h := &planHandler{orch: orch, doc: doc, log: log}
	r.Get("/health", health)
	r.Post("/plan", h.Plan)

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
