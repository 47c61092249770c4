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

// TagPlan is the outcome of matching requested tag titles against the
// existing tags.
type TagPlan struct {
	// Titles are the cleaned requested titles in request order.
	Titles []string
	// Matches is parallel to Titles; nil marks a title needing a new tag.
	Matches []*models.Tag
}

// Reused returns the existing tags the request matched.
func (p TagPlan) Reused() []models.Tag {
	var out []models.Tag
	for _, m := range p.Matches {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// ToCreate returns the titles that match no existing tag.
func (p TagPlan) ToCreate() []string {
	var out []string
	for i, m := range p.Matches {
		if m == nil {
			out = append(out, p.Titles[i])
		}
	}
	return out
}

// cleanTitles trims titles, drops blanks and removes duplicates. Two titles
// are duplicates when they produce the same slug ("Go" and "GO", "C#" and
// "cs") or, for titles without a slug, when they match ignoring case. The
// first spelling wins.
func cleanTitles(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	var out []string
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := taxonomyKey(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func taxonomyKey(title string) string {
	if s := slug.Generate(title); s != "" {
		return s
	}
	return "title:" + strings.ToLower(title)
}

// PlanTags matches titles against existing tags without any I/O. A title
// matches a tag whose title is equal ignoring case, or whose slug equals the
// slug the title would get.
func PlanTags(existing []models.Tag, titles []string) TagPlan {
	byTitle := make(map[string]*models.Tag, len(existing))
	bySlug := make(map[string]*models.Tag, len(existing))
	for i := range existing {
		t := &existing[i]
		byTitle[strings.ToLower(t.Title)] = t
		bySlug[t.Slug] = t
	}

	cleaned := cleanTitles(titles)
	plan := TagPlan{Titles: cleaned, Matches: make([]*models.Tag, len(cleaned))}
	for i, title := range cleaned {
		if t, ok := byTitle[strings.ToLower(title)]; ok {
			plan.Matches[i] = t
			continue
		}
		if s := slug.Generate(title); s != "" {
			if t, ok := bySlug[s]; ok {
				plan.Matches[i] = t
			}
		}
	}
	return plan
}

// TagResolver maps free-text tag titles to existing or newly created tags.
type TagResolver struct {
	tags  TagRepository
	cache Cache
}

// NewTagResolver creates a TagResolver.
func NewTagResolver(tags TagRepository, c Cache) *TagResolver {
	return &TagResolver{tags: tags, cache: c}
}

// Resolve returns one tag per distinct requested title, in request order,
// creating the tags that do not exist yet. snapshot is the caller's view of
// all tags; when nil the tags are read once. An empty request does no I/O.
func (r *TagResolver) Resolve(ctx context.Context, snapshot []models.Tag, titles []string) ([]models.Tag, error) {
	if len(cleanTitles(titles)) == 0 {
		return nil, nil
	}
	if snapshot == nil {
		all, err := r.tags.GetAll(ctx)
		if err != nil {
			return nil, apperr.Unexpected("load tags", err)
		}
		snapshot = all
	}

	plan := PlanTags(snapshot, titles)
	out := make([]models.Tag, 0, len(plan.Titles))
	created := 0
	for i, title := range plan.Titles {
		if m := plan.Matches[i]; m != nil {
			out = append(out, *m)
			continue
		}
		t, isNew, err := r.create(ctx, title)
		if err != nil {
			return nil, err
		}
		if isNew {
			created++
		}
		out = append(out, *t)
	}

	if created > 0 {
		r.cache.Remove(ctx, cache.KeyTags)
	}
	return out, nil
}

// create inserts a tag. When a concurrent request inserted the same slug
// first, the existing row is returned instead.
func (r *TagResolver) create(ctx context.Context, title string) (*models.Tag, bool, error) {
	t := &models.Tag{Title: title, Slug: slug.Taxonomy(title)}
	err := r.tags.Create(ctx, t)
	if err == nil {
		metrics.TaxonomyCreated.WithLabelValues("tag").Inc()
		logging.From(ctx).Info("tag created", "id", t.ID, "slug", t.Slug)
		return t, true, nil
	}
	if !apperr.IsKind(err, apperr.KindConflict) {
		return nil, false, apperr.Unexpected("create tag", err)
	}

	existing, gerr := r.tags.GetBySlug(ctx, t.Slug)
	if gerr != nil {
		return nil, false, apperr.Unexpected("reload tag", gerr)
	}
	if existing == nil {
		return nil, false, err
	}
	return existing, false, nil
}
