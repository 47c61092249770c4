package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"quillpress/internal/apperr"
	"quillpress/internal/models"
)

// Limits for listing query parameters.
const (
	maxPageSize      = 100
	defaultMediaSize = 50
	minArchiveYear   = 1970
	maxArchiveYear   = 9999
)

// queryInt parses an optional integer parameter within [lo, hi]. A missing
// parameter yields 0 and no message.
func queryInt(v url.Values, key, label string, lo, hi int) (int, string) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Sprintf("%s must be a whole number.", label)
	}
	if n < lo || n > hi {
		return 0, fmt.Sprintf("%s must be between %d and %d.", label, lo, hi)
	}
	return n, ""
}

// parsePostQuery builds a post listing query from URL parameters and
// returns the first problem found as a validation error.
func parsePostQuery(v url.Values) (models.PostQuery, error) {
	q := models.PostQuery{
		Status:       models.PostStatus(strings.TrimSpace(v.Get("status"))),
		CategorySlug: strings.TrimSpace(v.Get("category")),
		TagSlug:      strings.TrimSpace(v.Get("tag")),
	}

	ints := []struct {
		key, label string
		lo, hi     int
		dst        *int
	}{
		{"page", "Page", 1, 1_000_000, &q.Page},
		{"page_size", "Page size", 1, maxPageSize, &q.PageSize},
		{"year", "Year", minArchiveYear, maxArchiveYear, &q.Year},
		{"month", "Month", 1, 12, &q.Month},
	}
	for _, p := range ints {
		n, msg := queryInt(v, p.key, p.label, p.lo, p.hi)
		if msg != "" {
			return models.PostQuery{}, apperr.Validation(msg, map[string]string{p.key: msg})
		}
		*p.dst = n
	}

	if q.Month != 0 && q.Year == 0 {
		msg := "Year is required when filtering by month."
		return models.PostQuery{}, apperr.Validation(msg, map[string]string{"year": msg})
	}
	return q, nil
}

// parseMediaQuery reads the media type and page of a media listing. The
// type defaults to images.
func parseMediaQuery(v url.Values) (models.MediaType, int, error) {
	mt := models.MediaType(strings.TrimSpace(v.Get("type")))
	if mt == "" {
		mt = models.MediaTypeImage
	}
	if !mt.Valid() {
		msg := "Type must be one of: image, file."
		return "", 0, apperr.Validation(msg, map[string]string{"type": msg})
	}

	page, msg := queryInt(v, "page", "Page", 1, 1_000_000)
	if msg != "" {
		return "", 0, apperr.Validation(msg, map[string]string{"page": msg})
	}
	return mt, max(page, 1), nil
}
