// Package router sets up all HTTP routes and middleware chains for the
// Quillpress API. Reads and writes are split into groups so writes can be
// rate limited on their own.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"quillpress/internal/handlers"
	"quillpress/internal/logging"
	"quillpress/internal/metrics"
	"quillpress/internal/middleware"
)

// healthTimeout bounds all checks of one health request.
const healthTimeout = 2 * time.Second

// Check probes one dependency for the health endpoint.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// New creates and returns the configured Chi router. writeLimiter may be
// nil to leave writes unlimited. checks are run by GET /health.
func New(api *handlers.API, writeLimiter *middleware.RateLimiter, checks ...Check) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(metrics.Middleware)

	r.NotFound(jsonStatus(http.StatusNotFound, "Not found."))
	r.MethodNotAllowed(jsonStatus(http.StatusMethodNotAllowed, "Method not allowed."))

	r.Get("/health", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Reads.
		r.Get("/posts", api.PostsList)
		r.Get("/posts/{id}", api.PostGet)
		r.Get("/posts/slug/{slug}", api.PostGetBySlug)
		r.Get("/categories", api.CategoriesList)
		r.Get("/tags", api.TagsList)
		r.Get("/archives", api.Archives)
		r.Get("/media", api.MediaList)

		// Writes.
		r.Group(func(r chi.Router) {
			if writeLimiter != nil {
				r.Use(writeLimiter.Middleware)
			}

			r.Post("/posts", api.PostCreate)
			r.Put("/posts/{id}", api.PostUpdate)
			r.Delete("/posts/{id}", api.PostDelete)

			r.Post("/categories", api.CategoryCreate)
			r.Put("/categories/{id}", api.CategoryUpdate)
			r.Delete("/categories/{id}", api.CategoryDelete)

			r.Post("/tags", api.TagCreate)
			r.Put("/tags/{id}", api.TagUpdate)
			r.Delete("/tags/{id}", api.TagDelete)
		})
	})

	return r
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler runs every check and answers 200 "ok" when all pass, 503
// "degraded" otherwise. Failure details go to the log, not the response.
func healthHandler(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := healthReport{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				logging.From(ctx).Warn("health check failed", "check", c.Name, "error", err)
				report.Checks[c.Name] = "down"
				report.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			report.Checks[c.Name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(report)
	}
}

// jsonStatus answers every request with status and a JSON error message.
func jsonStatus(status int, msg string) http.HandlerFunc {
	body := []byte(`{"error":"` + msg + `"}` + "\n")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		w.Write(body)
	}
}
