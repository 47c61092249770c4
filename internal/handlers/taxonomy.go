// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"quillpress/internal/models"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// CategoriesList returns all categories with their post counts.
func (a *API) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cats, err := a.stats.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// CategoryCreate adds a category.
func (a *API) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.taxonomy.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/categories/"+formatID(c.ID))
	writeJSON(w, http.StatusCreated, c)
}

// CategoryUpdate renames or re-describes a category.
func (a *API) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.taxonomy.UpdateCategory(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CategoryDelete removes a category; its posts move to the default one.
func (a *API) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Category")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.taxonomy.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TagsList returns all tags with their post counts.
func (a *API) TagsList(w http.ResponseWriter, r *http.Request) {
	tags, err := a.stats.Tags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// TagCreate adds a tag.
func (a *API) TagCreate(w http.ResponseWriter, r *http.Request) {
	var in models.TagInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.taxonomy.CreateTag(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/tags/"+formatID(t.ID))
	writeJSON(w, http.StatusCreated, t)
}

// TagUpdate edits a tag.
func (a *API) TagUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Tag")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.TagInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.taxonomy.UpdateTag(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TagDelete removes a tag from every post and deletes it.
func (a *API) TagDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "Tag")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.taxonomy.DeleteTag(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Archives returns published post counts grouped by year and month.
func (a *API) Archives(w http.ResponseWriter, r *http.Request) {
	years, err := a.stats.Archives(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}
