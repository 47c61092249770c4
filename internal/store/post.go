// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quillpress/internal/models"
)

// PostStore manages posts and their post_tags rows.
type PostStore struct {
	db   DBTX
	tags *TagStore
}

// NewPostStore returns a new PostStore.
func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db, tags: NewTagStore(db)}
}

// postSelect joins the category so a post and its category load in one row.
const postSelect = `
	SELECT p.id, p.user_id, p.category_id, p.title, p.slug, p.body, p.body_mark, p.excerpt,
	       p.status, p.comment_status, p.created_on, p.updated_on, p.view_count, p.comment_count,
	       c.id, c.title, c.slug, c.description, c.post_count
	FROM posts p
	LEFT JOIN categories c ON c.id = p.category_id`

// scanPost scans a postSelect row.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p                         models.Post
		categoryID                sql.NullInt64
		title, slug, excerpt      sql.NullString
		updatedOn                 sql.NullTime
		catID, catCount           sql.NullInt64
		catTitle, catSlug, catDsc sql.NullString
	)
	err := scanner.Scan(
		&p.ID, &p.UserID, &categoryID, &title, &slug, &p.Body, &p.BodyMark, &excerpt,
		&p.Status, &p.CommentStatus, &p.CreatedOn, &updatedOn, &p.ViewCount, &p.CommentCount,
		&catID, &catTitle, &catSlug, &catDsc, &catCount,
	)
	if err != nil {
		return nil, err
	}

	p.Title = stringPtr(title)
	p.Slug = stringPtr(slug)
	p.Excerpt = stringPtr(excerpt)
	p.CreatedOn = p.CreatedOn.UTC()
	if updatedOn.Valid {
		t := updatedOn.Time.UTC()
		p.UpdatedOn = &t
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	if catID.Valid {
		p.Category = &models.Category{
			ID:          catID.Int64,
			Title:       catTitle.String,
			Slug:        catSlug.String,
			Description: catDsc.String,
			PostCount:   int(catCount.Int64),
		}
	}
	return &p, nil
}

// Get returns a post with its category and tags. Returns nil if not found.
func (s *PostStore) Get(ctx context.Context, id int64) (*models.Post, error) {
	return s.getOne(ctx, "get post", postSelect+` WHERE p.id = $1`, id)
}

// GetForUpdate returns a post like Get and locks its row until the
// enclosing transaction ends. Outside a transaction the lock is released
// immediately.
func (s *PostStore) GetForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	return s.getOne(ctx, "lock post", postSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

// GetBySlug returns a post by slug. Returns nil if not found.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getOne(ctx, "get post by slug", postSelect+` WHERE p.slug = $1`, slug)
}

func (s *PostStore) getOne(ctx context.Context, op, q string, arg any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, q, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Tags, err = s.tags.ForPost(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns one page of posts matching q, newest first, plus the total
// number of matches.
func (s *PostStore) List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.Status != "" {
		add("p.status = $%d", q.Status)
	}
	if q.CategorySlug != "" {
		add("c.slug = $%d", q.CategorySlug)
	}
	if q.TagSlug != "" {
		add(`EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = $%d)`, q.TagSlug)
	}
	if q.Year > 0 {
		add("EXTRACT(YEAR FROM p.created_on AT TIME ZONE 'UTC') = $%d", q.Year)
	}
	if q.Month > 0 {
		add("EXTRACT(MONTH FROM p.created_on AT TIME ZONE 'UTC') = $%d", q.Month)
	}

	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id`+filter, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	args = append(args, size, (page-1)*size)
	rows, err := s.db.QueryContext(ctx, postSelect+filter+
		fmt.Sprintf(" ORDER BY p.created_on DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	// Tags load after the cursor is closed; a transaction's connection
	// cannot serve a second query while rows are open.
	for i := range posts {
		if posts[i].Tags, err = s.tags.ForPost(ctx, posts[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return posts, total, nil
}

// SlugTaken reports whether a post other than excludeID uses slug.
func (s *PostStore) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return taken, nil
}

// Create inserts p and its post_tags rows and sets p.ID.
func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (user_id, category_id, title, slug, body, body_mark, excerpt,
			status, comment_status, created_on, updated_on, view_count, comment_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		p.UserID, nullInt64(p.CategoryID), nullString(p.Title), nullString(p.Slug),
		p.Body, p.BodyMark, nullString(p.Excerpt),
		p.Status, p.CommentStatus, p.CreatedOn, nullTime(p.UpdatedOn),
		p.ViewCount, p.CommentCount,
	).Scan(&p.ID)
	if err != nil {
		return classify("create post", err)
	}
	return s.insertTags(ctx, p.ID, p.TagIDs())
}

// Update rewrites p and replaces its post_tags rows.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts SET user_id = $1, category_id = $2, title = $3, slug = $4, body = $5,
			body_mark = $6, excerpt = $7, status = $8, comment_status = $9,
			created_on = $10, updated_on = $11, view_count = $12, comment_count = $13
		WHERE id = $14`,
		p.UserID, nullInt64(p.CategoryID), nullString(p.Title), nullString(p.Slug),
		p.Body, p.BodyMark, nullString(p.Excerpt),
		p.Status, p.CommentStatus, p.CreatedOn, nullTime(p.UpdatedOn),
		p.ViewCount, p.CommentCount, p.ID,
	)
	if err != nil {
		return classify("update post", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	return s.insertTags(ctx, p.ID, p.TagIDs())
}

func (s *PostStore) insertTags(ctx context.Context, postID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, tag_id FROM unnest($2::bigint[]) AS tag_id
		ON CONFLICT DO NOTHING`,
		postID, tagIDs)
	if err != nil {
		return classify("insert post tags", err)
	}
	return nil
}

// Delete removes a post. Its post_tags rows cascade.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// MoveCategory reassigns the posts of one category to another and returns
// the number of published posts moved.
func (s *PostStore) MoveCategory(ctx context.Context, from, to int64) (int, error) {
	var published int
	err := s.db.QueryRowContext(ctx, `
		WITH moved AS (
			UPDATE posts SET category_id = $2 WHERE category_id = $1
			RETURNING status
		)
		SELECT COUNT(*) FROM moved WHERE status = 'published'`,
		from, to,
	).Scan(&published)
	if err != nil {
		return 0, classify("move category posts", err)
	}
	return published, nil
}

// Archives counts published posts per UTC year and month, newest first.
func (s *PostStore) Archives(ctx context.Context) ([]models.ArchiveMonth, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT EXTRACT(YEAR FROM created_on AT TIME ZONE 'UTC')::int AS y,
		       EXTRACT(MONTH FROM created_on AT TIME ZONE 'UTC')::int AS m,
		       COUNT(*)
		FROM posts
		WHERE status = 'published'
		GROUP BY y, m
		ORDER BY y DESC, m DESC`)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	items := []models.ArchiveMonth{}
	for rows.Next() {
		var a models.ArchiveMonth
		if err := rows.Scan(&a.Year, &a.Month, &a.Count); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
