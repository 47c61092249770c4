// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package settings exposes the typed runtime settings stored as key/value
// rows in the meta table.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"quillpress/internal/models"
)

// Meta keys.
const (
	KeyTitle             = "core.title"
	KeyTagline           = "core.tagline"
	KeyTimeZoneID        = "core.time_zone_id"
	KeyDefaultCategoryID = "blog.default_category_id"
	KeyPostPerPage       = "blog.post_per_page"
	KeyExcerptWordLimit  = "blog.excerpt_word_limit"
	KeyAllowComments     = "blog.allow_comments"
)

// Core holds site-wide settings.
type Core struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
	// TimeZoneID is an IANA zone name used when displaying dates.
	TimeZoneID string `json:"time_zone_id"`
}

// Location returns the configured time zone, falling back to UTC.
func (c Core) Location() *time.Location {
	if c.TimeZoneID == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZoneID)
	if err != nil {
		slog.Warn("unknown time zone, using UTC", "time_zone_id", c.TimeZoneID, "error", err)
		return time.UTC
	}
	return loc
}

// Blog holds publishing settings.
type Blog struct {
	// DefaultCategoryID receives posts submitted without a category.
	// Zero leaves such posts uncategorized.
	DefaultCategoryID int64 `json:"default_category_id"`
	PostPerPage       int   `json:"post_per_page"`
	ExcerptWordLimit  int   `json:"excerpt_word_limit"`
	AllowComments     bool  `json:"allow_comments"`
}

// DefaultCore returns the settings used for missing keys.
func DefaultCore() Core {
	return Core{Title: "Quillpress", Tagline: "A blog", TimeZoneID: "UTC"}
}

// DefaultBlog returns the settings used for missing keys.
func DefaultBlog() Blog {
	return Blog{DefaultCategoryID: 1, PostPerPage: 10, ExcerptWordLimit: 55, AllowComments: true}
}

// Reader loads all meta rows.
type Reader interface {
	All(ctx context.Context) (models.MetaValues, error)
}

// Writer upserts meta rows.
type Writer interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// Service reads typed settings from the meta table.
type Service struct {
	meta Reader
}

// NewService creates a settings service backed by the given reader.
func NewService(meta Reader) *Service {
	return &Service{meta: meta}
}

// Core returns the site-wide settings.
func (s *Service) Core(ctx context.Context) (Core, error) {
	vals, err := s.meta.All(ctx)
	if err != nil {
		return Core{}, fmt.Errorf("load core settings: %w", err)
	}
	return ParseCore(vals), nil
}

// Blog returns the publishing settings.
func (s *Service) Blog(ctx context.Context) (Blog, error) {
	vals, err := s.meta.All(ctx)
	if err != nil {
		return Blog{}, fmt.Errorf("load blog settings: %w", err)
	}
	return ParseBlog(vals), nil
}

// ParseCore builds Core from raw meta values, defaulting missing keys.
func ParseCore(vals models.MetaValues) Core {
	d := DefaultCore()
	return Core{
		Title:      vals.Get(KeyTitle, d.Title),
		Tagline:    vals.Get(KeyTagline, d.Tagline),
		TimeZoneID: vals.Get(KeyTimeZoneID, d.TimeZoneID),
	}
}

// ParseBlog builds Blog from raw meta values. Missing or malformed values
// fall back to their defaults.
func ParseBlog(vals models.MetaValues) Blog {
	d := DefaultBlog()
	b := Blog{
		DefaultCategoryID: int64(parseInt(vals, KeyDefaultCategoryID, int(d.DefaultCategoryID))),
		PostPerPage:       parseInt(vals, KeyPostPerPage, d.PostPerPage),
		ExcerptWordLimit:  parseInt(vals, KeyExcerptWordLimit, d.ExcerptWordLimit),
		AllowComments:     d.AllowComments,
	}
	if raw, ok := vals[KeyAllowComments]; ok && raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			slog.Warn("invalid setting", "key", KeyAllowComments, "value", raw)
		} else {
			b.AllowComments = v
		}
	}
	if b.DefaultCategoryID < 0 {
		b.DefaultCategoryID = 0
	}
	if b.PostPerPage <= 0 {
		b.PostPerPage = d.PostPerPage
	}
	if b.ExcerptWordLimit <= 0 {
		b.ExcerptWordLimit = d.ExcerptWordLimit
	}
	return b
}

// Values returns the meta rows representing c and b.
func Values(c Core, b Blog) map[string]string {
	return map[string]string{
		KeyTitle:             c.Title,
		KeyTagline:           c.Tagline,
		KeyTimeZoneID:        c.TimeZoneID,
		KeyDefaultCategoryID: strconv.FormatInt(b.DefaultCategoryID, 10),
		KeyPostPerPage:       strconv.Itoa(b.PostPerPage),
		KeyExcerptWordLimit:  strconv.Itoa(b.ExcerptWordLimit),
		KeyAllowComments:     strconv.FormatBool(b.AllowComments),
	}
}

// Save persists c and b.
func Save(ctx context.Context, w Writer, c Core, b Blog) error {
	if err := w.SetMany(ctx, Values(c, b)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func parseInt(vals models.MetaValues, key string, fallback int) int {
	raw, ok := vals[key]
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid setting", "key", key, "value", raw)
		return fallback
	}
	return v
}
