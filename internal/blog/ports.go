// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"

	"quillpress/internal/cache"
	"quillpress/internal/events"
	"quillpress/internal/models"
	"quillpress/internal/settings"
)

// PostRepository persists posts together with their PostTag rows.
// Lookups return (nil, nil) when the post does not exist.
type PostRepository interface {
	Get(ctx context.Context, id int64) (*models.Post, error)
	// GetForUpdate is Get that also locks the post row until the enclosing
	// unit of work ends, so concurrent writers of one post serialise.
	GetForUpdate(ctx context.Context, id int64) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	// List returns one page of posts and the total number of matches.
	List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error)
	// SlugTaken reports whether another post than excludeID uses slug.
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	// Create inserts p and one PostTag row per entry of p.Tags, setting p.ID.
	Create(ctx context.Context, p *models.Post) error
	// Update rewrites p and replaces its PostTag rows with p.Tags.
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id int64) error
	// MoveCategory reassigns every post of category from to category to and
	// returns how many of the moved posts are published.
	MoveCategory(ctx context.Context, from, to int64) (int, error)
	// Archives counts published posts per year and month, newest first.
	Archives(ctx context.Context) ([]models.ArchiveMonth, error)
}

// CategoryRepository persists categories. Create and Update report a taken
// slug as an apperr.Conflict.
type CategoryRepository interface {
	Get(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
	// AdjustCount adds delta to the post count, clamping at zero.
	AdjustCount(ctx context.Context, id int64, delta int) error
}

// TagRepository persists tags with the same contract as CategoryRepository.
type TagRepository interface {
	Get(ctx context.Context, id int64) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	GetAll(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, t *models.Tag) error
	Update(ctx context.Context, t *models.Tag) error
	Delete(ctx context.Context, id int64) error
	AdjustCount(ctx context.Context, id int64, delta int) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Posts      PostRepository
	Categories CategoryRepository
	Tags       TagRepository
}

// UnitOfWork runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including on context cancellation.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

// AuthorLookup checks that a post author exists.
type AuthorLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Cache holds computed aggregates. Implementations are best effort: they
// log their own failures and report them as misses.
//
// Remove advances the generation of each key. A reader takes Version before
// querying the repositories and stores its result with SetIfVersion, which
// drops the value when a write invalidated the key in the meantime.
type Cache interface {
	Get(ctx context.Context, key cache.Key, dst any) bool
	Version(ctx context.Context, key cache.Key) int64
	SetIfVersion(ctx context.Context, key cache.Key, v any, version int64)
	Remove(ctx context.Context, keys ...cache.Key)
}

// SettingsSource supplies the typed runtime settings.
type SettingsSource interface {
	Core(ctx context.Context) (settings.Core, error)
	Blog(ctx context.Context) (settings.Blog, error)
}

// Publisher receives post lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

// InvalidationLog records which entity caused a cache invalidation.
type InvalidationLog interface {
	Log(ctx context.Context, entityType string, entityID int64, action string)
}
