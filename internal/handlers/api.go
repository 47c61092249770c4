// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the Quillpress API.
// Handlers decode requests, call the blog services and map domain errors to
// status codes; they receive their dependencies through the API struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/apperr"
	"quillpress/internal/blog"
	"quillpress/internal/logging"
	"quillpress/internal/models"
)

// maxBodySize caps JSON request bodies (2 MB).
const maxBodySize = 2 << 20

// MediaLister lists media metadata by type, newest first.
type MediaLister interface {
	ListByType(ctx context.Context, mediaType models.MediaType, page, pageSize int) ([]models.Media, int, error)
}

// API groups the HTTP handlers and their dependencies.
type API struct {
	posts    *blog.PostService
	taxonomy *blog.TaxonomyService
	stats    *blog.StatsService
	media    MediaLister
}

// NewAPI creates the handler group. media may be nil, in which case the
// media listing is always empty.
func NewAPI(posts *blog.PostService, taxonomy *blog.TaxonomyService, stats *blog.StatsService, media MediaLister) *API {
	return &API{posts: posts, taxonomy: taxonomy, stats: stats, media: media}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to a status code. Only validation and
// not-found messages reach the client; everything else is logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError || status == http.StatusConflict {
		logging.From(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	body := errorResponse{Error: apperr.SafeMessage(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind == apperr.KindValidation {
		body.Fields = ae.Fields
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies, unknown fields and oversized bodies are validation
// errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Validation("Request body is too large (max 2 MB).", nil)
		case errors.As(err, &typeErr) && typeErr.Field != "":
			msg := fmt.Sprintf("Field %s has the wrong type.", typeErr.Field)
			return apperr.Validation(msg, map[string]string{typeErr.Field: msg})
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is empty.", nil)
		default:
			return apperr.Validation("Request body must be a valid JSON object.", nil)
		}
	}
	if dec.More() {
		return apperr.Validation("Request body must contain a single JSON object.", nil)
	}
	return nil
}

// idParam reads the {id} route parameter. Ids that cannot exist are
// reported as not found.
func idParam(r *http.Request, entity string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("%s %q does not exist.", entity, raw)
	}
	return id, nil
}
