// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics defines the Prometheus instruments for the publishing
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PostWrites counts post writes by action (create, update, delete) and
	// outcome (ok, or the error kind).
	PostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quillpress_post_writes_total",
		Help: "Post writes by action and outcome.",
	}, []string{"action", "outcome"})

	// PostWriteDuration observes the latency of post writes.
	PostWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quillpress_post_write_duration_seconds",
		Help:    "Duration of post writes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// TaxonomyCreated counts categories and tags created implicitly by
	// post submissions or explicitly through management.
	TaxonomyCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quillpress_taxonomy_created_total",
		Help: "Categories and tags created.",
	}, []string{"kind"})

	// ConflictRetries counts post writes retried after a unique-constraint race.
	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quillpress_conflict_retries_total",
		Help: "Post writes retried after a unique-constraint conflict.",
	})

	// HandlerPanics counts panics recovered from HTTP handlers.
	HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quillpress_handler_panics_total",
		Help: "Panics recovered from HTTP handlers.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})
)

// ObservePostWrite records one post write.
func ObservePostWrite(action, outcome string, started time.Time) {
	PostWrites.WithLabelValues(action, outcome).Inc()
	PostWriteDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records RED metrics for every request, labelled with the chi
// route pattern (e.g. /api/posts/{id}) rather than the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(path, r.Method, status).Inc()
	})
}
