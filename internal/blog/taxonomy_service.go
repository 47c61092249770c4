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

// TaxonomyService manages categories and tags directly, outside of post
// submissions.
type TaxonomyService struct {
	repos    Repositories
	uow      UnitOfWork
	cache    Cache
	settings SettingsSource
}

// NewTaxonomyService creates a TaxonomyService.
func NewTaxonomyService(repos Repositories, uow UnitOfWork, c Cache, settings SettingsSource) *TaxonomyService {
	return &TaxonomyService{repos: repos, uow: uow, cache: c, settings: settings}
}

// taxonomySlug normalizes an explicit slug, or derives one from the title.
func taxonomySlug(explicit, title string) string {
	if s := slug.Generate(explicit); s != "" {
		return s
	}
	return slug.Taxonomy(title)
}

// duplicateError turns a slug conflict into a validation error on the field
// the slug came from.
func duplicateError(kind, explicitSlug string, err error) error {
	if !apperr.IsKind(err, apperr.KindConflict) {
		return classifyError("save "+kind, err)
	}
	field := "title"
	if explicitSlug != "" {
		field = "slug"
	}
	msg := "A " + kind + " with this name already exists."
	return apperr.Validation(msg, map[string]string{field: msg})
}

func validateInput(in any) error {
	var fe fieldErrors
	if err := fe.addStruct(in); err != nil {
		return err
	}
	return fe.err()
}

// CreateCategory adds a category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	c := &models.Category{Title: in.Title, Slug: taxonomySlug(in.Slug, in.Title), Description: in.Description}
	if err := s.repos.Categories.Create(ctx, c); err != nil {
		return nil, duplicateError("category", in.Slug, err)
	}
	metrics.TaxonomyCreated.WithLabelValues("category").Inc()
	s.cache.Remove(ctx, cache.KeyCategories)
	logging.From(ctx).Info("category created", "id", c.ID, "slug", c.Slug)
	return c, nil
}

// UpdateCategory renames or re-describes a category. Its post count is
// untouched.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	c, err := s.repos.Categories.Get(ctx, id)
	if err != nil {
		return nil, classifyError("load category", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Category %d does not exist.", id)
	}

	if in.Slug != "" || !strings.EqualFold(c.Title, in.Title) {
		c.Slug = taxonomySlug(in.Slug, in.Title)
	}
	c.Title = in.Title
	c.Description = in.Description
	if err := s.repos.Categories.Update(ctx, c); err != nil {
		return nil, duplicateError("category", in.Slug, err)
	}
	s.cache.Remove(ctx, cache.KeyCategories)
	return c, nil
}

// DeleteCategory removes a category and moves its posts to the default
// category. The default category itself cannot be deleted.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id int64) error {
	blogSet, err := s.settings.Blog(ctx)
	if err != nil {
		return classifyError("load blog settings", err)
	}
	if id == blogSet.DefaultCategoryID {
		msg := "The default category cannot be deleted."
		return apperr.Validation(msg, map[string]string{"category_id": msg})
	}

	err = s.uow.Do(ctx, func(ctx context.Context, r Repositories) error {
		c, err := r.Categories.Get(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("Category %d does not exist.", id)
		}

		if blogSet.DefaultCategoryID > 0 {
			def, err := r.Categories.Get(ctx, blogSet.DefaultCategoryID)
			if err != nil {
				return err
			}
			if def != nil {
				published, err := r.Posts.MoveCategory(ctx, id, def.ID)
				if err != nil {
					return err
				}
				if err := r.Categories.AdjustCount(ctx, def.ID, published); err != nil {
					return err
				}
			}
		}
		return r.Categories.Delete(ctx, id)
	})
	if err != nil {
		return classifyError("delete category", err)
	}
	s.cache.Remove(ctx, cache.KeyCategories)
	logging.From(ctx).Info("category deleted", "id", id)
	return nil
}

// CreateTag adds a tag.
func (s *TaxonomyService) CreateTag(ctx context.Context, in models.TagInput) (*models.Tag, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	t := &models.Tag{Title: in.Title, Slug: taxonomySlug(in.Slug, in.Title), Description: in.Description, Color: in.Color}
	if err := s.repos.Tags.Create(ctx, t); err != nil {
		return nil, duplicateError("tag", in.Slug, err)
	}
	metrics.TaxonomyCreated.WithLabelValues("tag").Inc()
	s.cache.Remove(ctx, cache.KeyTags)
	logging.From(ctx).Info("tag created", "id", t.ID, "slug", t.Slug)
	return t, nil
}

// UpdateTag edits a tag. Its post count is untouched.
func (s *TaxonomyService) UpdateTag(ctx context.Context, id int64, in models.TagInput) (*models.Tag, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	t, err := s.repos.Tags.Get(ctx, id)
	if err != nil {
		return nil, classifyError("load tag", err)
	}
	if t == nil {
		return nil, apperr.NotFound("Tag %d does not exist.", id)
	}

	if in.Slug != "" || !strings.EqualFold(t.Title, in.Title) {
		t.Slug = taxonomySlug(in.Slug, in.Title)
	}
	t.Title = in.Title
	t.Description = in.Description
	t.Color = in.Color
	if err := s.repos.Tags.Update(ctx, t); err != nil {
		return nil, duplicateError("tag", in.Slug, err)
	}
	s.cache.Remove(ctx, cache.KeyTags)
	return t, nil
}

// DeleteTag removes a tag from every post and deletes it.
func (s *TaxonomyService) DeleteTag(ctx context.Context, id int64) error {
	t, err := s.repos.Tags.Get(ctx, id)
	if err != nil {
		return classifyError("load tag", err)
	}
	if t == nil {
		return apperr.NotFound("Tag %d does not exist.", id)
	}
	if err := s.repos.Tags.Delete(ctx, id); err != nil {
		return classifyError("delete tag", err)
	}
	s.cache.Remove(ctx, cache.KeyTags)
	logging.From(ctx).Info("tag deleted", "id", id)
	return nil
}
