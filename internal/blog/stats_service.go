// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"

	"quillpress/internal/cache"
	"quillpress/internal/models"
)

// StatsService serves the listing aggregates shown around posts. Results
// come from the cache when present and are otherwise recomputed from the
// repositories. A recomputed result is cached only if no write invalidated
// the key while it was being computed.
type StatsService struct {
	repos Repositories
	cache Cache
}

// NewStatsService creates a StatsService.
func NewStatsService(repos Repositories, c Cache) *StatsService {
	return &StatsService{repos: repos, cache: c}
}

// Archives returns published post counts grouped by year, newest first.
func (s *StatsService) Archives(ctx context.Context) ([]models.ArchiveYear, error) {
	version := s.cache.Version(ctx, cache.KeyArchives)
	var years []models.ArchiveYear
	if s.cache.Get(ctx, cache.KeyArchives, &years) {
		return years, nil
	}

	months, err := s.repos.Posts.Archives(ctx)
	if err != nil {
		return nil, classifyError("load archives", err)
	}
	years = GroupArchives(months)
	s.cache.SetIfVersion(ctx, cache.KeyArchives, years, version)
	return years, nil
}

// Categories returns every category with its post count.
func (s *StatsService) Categories(ctx context.Context) ([]models.Category, error) {
	version := s.cache.Version(ctx, cache.KeyCategories)
	var cats []models.Category
	if s.cache.Get(ctx, cache.KeyCategories, &cats) {
		return cats, nil
	}

	cats, err := s.repos.Categories.GetAll(ctx)
	if err != nil {
		return nil, classifyError("load categories", err)
	}
	if cats == nil {
		cats = []models.Category{}
	}
	s.cache.SetIfVersion(ctx, cache.KeyCategories, cats, version)
	return cats, nil
}

// Tags returns every tag with its post count.
func (s *StatsService) Tags(ctx context.Context) ([]models.Tag, error) {
	version := s.cache.Version(ctx, cache.KeyTags)
	var tags []models.Tag
	if s.cache.Get(ctx, cache.KeyTags, &tags) {
		return tags, nil
	}

	tags, err := s.repos.Tags.GetAll(ctx)
	if err != nil {
		return nil, classifyError("load tags", err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	s.cache.SetIfVersion(ctx, cache.KeyTags, tags, version)
	return tags, nil
}

// GroupArchives folds month rows, already sorted newest first, into years.
func GroupArchives(months []models.ArchiveMonth) []models.ArchiveYear {
	years := []models.ArchiveYear{}
	for _, m := range months {
		if n := len(years); n == 0 || years[n-1].Year != m.Year {
			years = append(years, models.ArchiveYear{Year: m.Year})
		}
		y := &years[len(years)-1]
		y.Months = append(y.Months, m)
		y.Count += m.Count
	}
	return years
}
