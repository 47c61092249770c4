// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/models"
)

// postList is one page of a post listing.
type postList struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
}

// PostCreate publishes or saves a draft from a JSON submission.
func (a *API) PostCreate(w http.ResponseWriter, r *http.Request) {
	var sub models.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, err)
		return
	}

	post, err := a.posts.Create(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/posts/"+formatID(post.ID))
	writeJSON(w, http.StatusCreated, post)
}

// PostGet returns a post by id.
func (a *API) PostGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Post")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := a.posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostGetBySlug returns a post by slug.
func (a *API) PostGetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := a.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostUpdate replaces a post with a JSON submission.
func (a *API) PostUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Post")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var sub models.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, err)
		return
	}

	post, err := a.posts.Update(r.Context(), id, sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostDelete removes a post.
func (a *API) PostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Post")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.posts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostsList returns one page of posts filtered by status, category, tag
// and month.
func (a *API) PostsList(w http.ResponseWriter, r *http.Request) {
	q, err := parsePostQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	posts, total, err := a.posts.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postList{Posts: posts, Total: total, Page: max(q.Page, 1)})
}
