// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"strings"

	"quillpress/internal/apperr"
	"quillpress/internal/cache"
	"quillpress/internal/logging"
	"quillpress/internal/metrics"
	"quillpress/internal/models"
	"quillpress/internal/slug"
)

// CategoryResolver finds a post's category by id, or by title creating it
// on first use.
type CategoryResolver struct {
	categories CategoryRepository
	cache      Cache
}

// NewCategoryResolver creates a CategoryResolver.
func NewCategoryResolver(categories CategoryRepository, c Cache) *CategoryResolver {
	return &CategoryResolver{categories: categories, cache: c}
}

// Resolve returns the category with the given id when id > 0 (NotFound if
// it does not exist), otherwise the category matching title, creating it if
// needed. With neither it returns nil.
func (r *CategoryResolver) Resolve(ctx context.Context, id int64, title string) (*models.Category, error) {
	if id > 0 {
		c, err := r.categories.Get(ctx, id)
		if err != nil {
			return nil, apperr.Unexpected("load category", err)
		}
		if c == nil {
			return nil, apperr.NotFound("Category %d does not exist.", id)
		}
		return c, nil
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	all, err := r.categories.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected("load categories", err)
	}
	if c := matchCategory(all, title); c != nil {
		return c, nil
	}
	return r.create(ctx, title)
}

func matchCategory(all []models.Category, title string) *models.Category {
	s := slug.Generate(title)
	for i := range all {
		if strings.EqualFold(all[i].Title, title) {
			return &all[i]
		}
	}
	if s == "" {
		return nil
	}
	for i := range all {
		if all[i].Slug == s {
			return &all[i]
		}
	}
	return nil
}

func (r *CategoryResolver) create(ctx context.Context, title string) (*models.Category, error) {
	c := &models.Category{Title: title, Slug: slug.Taxonomy(title)}
	err := r.categories.Create(ctx, c)
	if err == nil {
		metrics.TaxonomyCreated.WithLabelValues("category").Inc()
		logging.From(ctx).Info("category created", "id", c.ID, "slug", c.Slug)
		r.cache.Remove(ctx, cache.KeyCategories)
		return c, nil
	}
	if !apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Unexpected("create category", err)
	}

	existing, gerr := r.categories.GetBySlug(ctx, c.Slug)
	if gerr != nil {
		return nil, apperr.Unexpected("reload category", gerr)
	}
	if existing == nil {
		return nil, err
	}
	return existing, nil
}
