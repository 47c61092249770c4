// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"quillpress/internal/apperr"
	"quillpress/internal/models"
)

// mediaItem adds display fields to a media record.
type mediaItem struct {
	models.Media
	Size string `json:"size"`
}

// mediaList is one page of the media library.
type mediaList struct {
	Items []mediaItem `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
}

// MediaList returns one page of media metadata of a single type.
func (a *API) MediaList(w http.ResponseWriter, r *http.Request) {
	mt, page, err := parseMediaQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := mediaList{Items: []mediaItem{}, Page: page}
	if a.media != nil {
		items, total, err := a.media.ListByType(r.Context(), mt, page, defaultMediaSize)
		if err != nil {
			writeError(w, r, apperr.Unexpected("list media", err))
			return
		}
		for _, m := range items {
			out.Items = append(out.Items, mediaItem{Media: m, Size: m.HumanSize()})
		}
		out.Total = total
	}
	writeJSON(w, http.StatusOK, out)
}
