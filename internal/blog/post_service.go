// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog turns author submissions into stored posts. It resolves or
// creates categories and tags, derives unique slugs, normalizes timestamps,
// keeps the denormalized post counts consistent, invalidates cached
// aggregates and announces every change as an event.
package blog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"quillpress/internal/apperr"
	"quillpress/internal/cache"
	"quillpress/internal/events"
	"quillpress/internal/logging"
	"quillpress/internal/markdown"
	"quillpress/internal/metrics"
	"quillpress/internal/models"
	"quillpress/internal/settings"
	"quillpress/internal/slug"
)

var tracer = otel.Tracer("quillpress/internal/blog")

// PostServiceConfig lists the collaborators of a PostService. Events and
// Log are optional.
type PostServiceConfig struct {
	Repos      Repositories
	UnitOfWork UnitOfWork
	Authors    AuthorLookup
	Cache      Cache
	Settings   SettingsSource
	Events     Publisher
	Log        InvalidationLog
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// PostService creates, updates, deletes and reads posts.
type PostService struct {
	repos      Repositories
	uow        UnitOfWork
	authors    AuthorLookup
	tags       *TagResolver
	categories *CategoryResolver
	cache      Cache
	settings   SettingsSource
	events     Publisher
	log        InvalidationLog
	now        func() time.Time
}

// NewPostService creates a PostService.
func NewPostService(cfg PostServiceConfig) *PostService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PostService{
		repos:      cfg.Repos,
		uow:        cfg.UnitOfWork,
		authors:    cfg.Authors,
		tags:       NewTagResolver(cfg.Repos.Tags, cfg.Cache),
		categories: NewCategoryResolver(cfg.Repos.Categories, cfg.Cache),
		cache:      cfg.Cache,
		settings:   cfg.Settings,
		events:     cfg.Events,
		log:        cfg.Log,
		now:        now,
	}
}

// Create validates sub and stores it as a new post. Counts change only when
// the post is published.
func (s *PostService) Create(ctx context.Context, sub models.Submission) (post *models.Post, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Create")
	started := time.Now()
	defer func() { s.finish(ctx, span, "create", started, err) }()

	blogSet, err := s.prepare(ctx, &sub)
	if err != nil {
		return nil, err
	}

	err = s.retryOnConflict(ctx, "create", func(attempt int) error {
		p, err := s.build(ctx, &sub, nil, blogSet, attempt)
		if err != nil {
			return err
		}
		err = s.uow.Do(ctx, func(ctx context.Context, r Repositories) error {
			if err := r.Posts.Create(ctx, p); err != nil {
				return err
			}
			return computeDeltas(nil, p).apply(ctx, r)
		})
		if err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("post.id", post.ID))
	s.afterWrite(ctx, events.PostCreated, post)
	s.decorate(ctx, post)
	return post, nil
}

// Update replaces the post id with sub. UpdatedOn is set only when some
// stored field actually changes.
func (s *PostService) Update(ctx context.Context, id int64, sub models.Submission) (post *models.Post, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Update", trace.WithAttributes(attribute.Int64("post.id", id)))
	started := time.Now()
	defer func() { s.finish(ctx, span, "update", started, err) }()

	blogSet, err := s.prepare(ctx, &sub)
	if err != nil {
		return nil, err
	}

	err = s.retryOnConflict(ctx, "update", func(attempt int) error {
		existing, err := s.repos.Posts.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound("Post %d does not exist.", id)
		}

		p, err := s.build(ctx, &sub, existing, blogSet, attempt)
		if err != nil {
			return err
		}
		err = s.uow.Do(ctx, func(ctx context.Context, r Repositories) error {
			before, err := r.Posts.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if before == nil {
				return apperr.NotFound("Post %d does not exist.", id)
			}
			if err := r.Posts.Update(ctx, p); err != nil {
				return err
			}
			return computeDeltas(before, p).apply(ctx, r)
		})
		if err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, events.PostUpdated, post)
	s.decorate(ctx, post)
	return post, nil
}

// Delete removes a post. Its category and tags survive with decremented
// counts when it was published.
func (s *PostService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "PostService.Delete", trace.WithAttributes(attribute.Int64("post.id", id)))
	started := time.Now()
	defer func() { s.finish(ctx, span, "delete", started, err) }()

	var deleted *models.Post
	err = s.uow.Do(ctx, func(ctx context.Context, r Repositories) error {
		before, err := r.Posts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if before == nil {
			return apperr.NotFound("Post %d does not exist.", id)
		}
		if err := r.Posts.Delete(ctx, id); err != nil {
			return err
		}
		deleted = before
		return computeDeltas(before, nil).apply(ctx, r)
	})
	if err != nil {
		return classifyError("delete post", err)
	}

	s.afterWrite(ctx, events.PostDeleted, deleted)
	return nil
}

// Get returns a post by id.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Get", trace.WithAttributes(attribute.Int64("post.id", id)))
	defer span.End()

	p, err := s.repos.Posts.Get(ctx, id)
	if err != nil {
		return nil, classifyError("get post", err)
	}
	if p == nil {
		return nil, apperr.NotFound("Post %d does not exist.", id)
	}
	s.decorate(ctx, p)
	return p, nil
}

// GetBySlug returns a post by slug.
func (s *PostService) GetBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.GetBySlug", trace.WithAttributes(attribute.String("post.slug", postSlug)))
	defer span.End()

	p, err := s.repos.Posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, classifyError("get post", err)
	}
	if p == nil {
		return nil, apperr.NotFound("Post %q does not exist.", postSlug)
	}
	s.decorate(ctx, p)
	return p, nil
}

// List returns one page of posts and the total number of matches. A zero
// page size uses the PostPerPage setting.
func (s *PostService) List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error) {
	ctx, span := tracer.Start(ctx, "PostService.List")
	defer span.End()

	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperr.Validation("Status must be one of: draft, published.",
			map[string]string{"status": "Status must be one of: draft, published."})
	}
	if q.Month < 0 || q.Month > 12 {
		return nil, 0, apperr.Validation("Month must be between 1 and 12.",
			map[string]string{"month": "Month must be between 1 and 12."})
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		blogSet, err := s.settings.Blog(ctx)
		if err != nil {
			return nil, 0, classifyError("load blog settings", err)
		}
		q.PageSize = blogSet.PostPerPage
	}

	posts, total, err := s.repos.Posts.List(ctx, q)
	if err != nil {
		return nil, 0, classifyError("list posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	loc := s.location(ctx)
	now := s.now()
	for i := range posts {
		posts[i].CreatedOnDisplay = RelativeTime(posts[i].CreatedOn, now, loc)
	}
	return posts, total, nil
}

// prepare fills submission defaults, validates it and checks the author.
func (s *PostService) prepare(ctx context.Context, sub *models.Submission) (settings.Blog, error) {
	blogSet, err := s.settings.Blog(ctx)
	if err != nil {
		return settings.Blog{}, classifyError("load blog settings", err)
	}

	sub.Title = strings.TrimSpace(sub.Title)
	sub.Slug = strings.TrimSpace(sub.Slug)
	sub.CategoryTitle = strings.TrimSpace(sub.CategoryTitle)
	if sub.Status == "" {
		sub.Status = models.PostStatusDraft
	}
	if sub.CommentStatus == "" {
		sub.CommentStatus = models.CommentStatusAllow
		if !blogSet.AllowComments {
			sub.CommentStatus = models.CommentStatusDisallow
		}
	}

	if err := validateSubmission(sub); err != nil {
		return settings.Blog{}, err
	}

	ok, err := s.authors.Exists(ctx, sub.UserID)
	if err != nil {
		return settings.Blog{}, classifyError("check author", err)
	}
	if !ok {
		msg := "Author does not exist."
		return settings.Blog{}, apperr.Validation(msg, map[string]string{"user_id": msg})
	}
	return blogSet, nil
}

// build turns a prepared submission into the post to persist. existing is
// the stored post on update and nil on create. Category and tag resolution
// commit on their own; a retry resolves again against fresh state.
func (s *PostService) build(ctx context.Context, sub *models.Submission, existing *models.Post, blogSet settings.Blog, attempt int) (*models.Post, error) {
	category, err := s.resolveCategory(ctx, sub, blogSet)
	if err != nil {
		return nil, err
	}

	snapshot := sub.Tags
	if attempt > 0 {
		snapshot = nil
	}
	tags, err := s.tags.Resolve(ctx, snapshot, sub.TagTitles)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}

	p := &models.Post{
		UserID:        sub.UserID,
		Category:      category,
		Tags:          tags,
		Status:        sub.Status,
		CommentStatus: sub.CommentStatus,
		BodyMark:      sub.BodyMark,
	}
	if category != nil {
		id := category.ID
		p.CategoryID = &id
	}

	if sub.Title != "" {
		title := sub.Title
		p.Title = &title
		if p.Slug, err = s.postSlug(ctx, sub, existing); err != nil {
			return nil, err
		}
	}

	p.CreatedOn = sub.CreatedOn
	if p.CreatedOn.IsZero() {
		if existing != nil {
			p.CreatedOn = existing.CreatedOn
		} else {
			p.CreatedOn = s.now()
		}
	}
	p.CreatedOn = p.CreatedOn.UTC().Truncate(time.Microsecond)

	p.Body = sub.Body
	if strings.TrimSpace(p.Body) == "" && strings.TrimSpace(sub.BodyMark) != "" {
		if p.Body, err = markdown.ToHTML(sub.BodyMark); err != nil {
			return nil, apperr.Unexpected("render post body", err)
		}
	}

	excerpt := strings.TrimSpace(sub.Excerpt)
	if excerpt == "" {
		excerpt = Excerpt(p.Body, blogSet.ExcerptWordLimit)
	}
	if excerpt != "" {
		p.Excerpt = &excerpt
	}

	if existing != nil {
		p.ID = existing.ID
		p.ViewCount = existing.ViewCount
		p.CommentCount = existing.CommentCount
		p.UpdatedOn = existing.UpdatedOn
		if postChanged(existing, p) {
			now := s.now().UTC().Truncate(time.Microsecond)
			p.UpdatedOn = &now
		}
	}
	return p, nil
}

// resolveCategory applies the submission's category, falling back to the
// default category when the submission names none.
func (s *PostService) resolveCategory(ctx context.Context, sub *models.Submission, blogSet settings.Blog) (*models.Category, error) {
	category, err := s.categories.Resolve(ctx, sub.CategoryID, sub.CategoryTitle)
	if apperr.IsKind(err, apperr.KindNotFound) {
		msg := apperr.SafeMessage(err)
		return nil, apperr.Validation(msg, map[string]string{"category_id": msg})
	}
	if err != nil {
		return nil, err
	}
	if category != nil || blogSet.DefaultCategoryID <= 0 {
		return category, nil
	}

	def, err := s.repos.Categories.Get(ctx, blogSet.DefaultCategoryID)
	if err != nil {
		return nil, apperr.Unexpected("load default category", err)
	}
	if def == nil {
		logging.From(ctx).Warn("default category does not exist", "category_id", blogSet.DefaultCategoryID)
	}
	return def, nil
}

// postSlug picks the slug for a titled post: the normalized explicit slug,
// else the stored slug when the title did not change, else one derived from
// the title. The result is unique among all other posts.
func (s *PostService) postSlug(ctx context.Context, sub *models.Submission, existing *models.Post) (*string, error) {
	base := slug.Generate(sub.Slug)
	if base == "" && existing != nil && existing.Slug != nil &&
		existing.Title != nil && *existing.Title == sub.Title {
		base = *existing.Slug
	}
	if base == "" {
		base = slug.Taxonomy(sub.Title)
	}

	var excludeID int64
	if existing != nil {
		excludeID = existing.ID
	}
	unique, err := slug.Uniquify(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repos.Posts.SlugTaken(ctx, candidate, excludeID)
	})
	if err != nil {
		return nil, apperr.Unexpected("derive post slug", err)
	}
	return &unique, nil
}

// retryOnConflict runs fn and runs it once more when it fails with a
// Conflict. A second Conflict becomes an Unexpected error.
func (s *PostService) retryOnConflict(ctx context.Context, op string, fn func(attempt int) error) error {
	err := fn(0)
	if apperr.IsKind(err, apperr.KindConflict) {
		metrics.ConflictRetries.Inc()
		logging.From(ctx).Warn("post write conflict, retrying", "op", op, "error", err)
		err = fn(1)
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Unexpected(op+" post: conflict persisted after retry", err)
		}
	}
	if err != nil {
		return classifyError(op+" post", err)
	}
	return nil
}

// afterWrite invalidates the cached aggregates, records the invalidation
// and publishes the event. None of these can fail the write.
func (s *PostService) afterWrite(ctx context.Context, typ events.Type, p *models.Post) {
	s.cache.Remove(ctx, cache.BlogKeys...)

	action := strings.TrimPrefix(string(typ), "post.")
	if s.log != nil {
		s.log.Log(ctx, "post", p.ID, action)
	}
	if s.events != nil {
		postSlug := ""
		if p.Slug != nil {
			postSlug = *p.Slug
		}
		s.events.Publish(ctx, events.New(typ, p.ID, postSlug, string(p.Status)))
	}
	logging.From(ctx).Info("post "+action, "id", p.ID, "status", p.Status)
}

// decorate fills the read-time fields.
func (s *PostService) decorate(ctx context.Context, p *models.Post) {
	p.CreatedOnDisplay = RelativeTime(p.CreatedOn, s.now(), s.location(ctx))
}

func (s *PostService) location(ctx context.Context) *time.Location {
	core, err := s.settings.Core(ctx)
	if err != nil {
		logging.From(ctx).Warn("core settings unavailable, using UTC", "error", err)
		return time.UTC
	}
	return core.Location()
}

// finish ends the span and records the outcome of a write.
func (s *PostService) finish(ctx context.Context, span trace.Span, action string, started time.Time, err error) {
	defer span.End()
	if err == nil {
		metrics.ObservePostWrite(action, "ok", started)
		return
	}

	kind := apperr.KindOf(err)
	metrics.ObservePostWrite(action, string(kind), started)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))
	if kind == apperr.KindUnexpected {
		logging.From(ctx).Error("post "+action+" failed", "error", err)
	}
}

// classifyError passes domain errors through and wraps everything else as
// Unexpected.
func classifyError(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Unexpected(op, err)
}

// postChanged reports whether any stored field differs between a and b.
func postChanged(a, b *models.Post) bool {
	return !equalStringPtr(a.Title, b.Title) ||
		!equalStringPtr(a.Slug, b.Slug) ||
		!equalStringPtr(a.Excerpt, b.Excerpt) ||
		a.Body != b.Body ||
		a.BodyMark != b.BodyMark ||
		a.Status != b.Status ||
		a.CommentStatus != b.CommentStatus ||
		!a.CreatedOn.Equal(b.CreatedOn) ||
		!equalInt64Ptr(a.CategoryID, b.CategoryID) ||
		!sameIDs(a.TagIDs(), b.TagIDs())
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameIDs(a, b []int64) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}
