// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"quillpress/internal/models"
)

// TagStore manages tags in the database.
type TagStore struct {
	db DBTX
}

// NewTagStore returns a new TagStore.
func NewTagStore(db DBTX) *TagStore {
	return &TagStore{db: db}
}

const tagColumns = `id, title, slug, description, color, post_count`

func scanTag(scanner interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := scanner.Scan(&t.ID, &t.Title, &t.Slug, &t.Description, &t.Color, &t.PostCount); err != nil {
		return nil, err
	}
	return &t, nil
}

// Get returns a tag by ID. Returns nil if not found.
func (s *TagStore) Get(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// GetBySlug returns a tag by slug. Returns nil if not found.
func (s *TagStore) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag by slug: %w", err)
	}
	return t, nil
}

// GetAll returns every tag ordered by title.
func (s *TagStore) GetAll(ctx context.Context) ([]models.Tag, error) {
	return s.query(ctx, "list tags",
		`SELECT `+tagColumns+` FROM tags ORDER BY title, id`)
}

// ForPost returns the tags attached to a post, ordered by title.
func (s *TagStore) ForPost(ctx context.Context, postID int64) ([]models.Tag, error) {
	return s.query(ctx, "list post tags", `
		SELECT t.id, t.title, t.slug, t.description, t.color, t.post_count
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.title, t.id`, postID)
}

func (s *TagStore) query(ctx context.Context, op, q string, args ...any) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// Create inserts a new tag and sets its ID. A taken slug is reported as a
// conflict.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (title, slug, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_count`,
		t.Title, t.Slug, t.Description, t.Color,
	).Scan(&t.ID, &t.PostCount)
	if err != nil {
		return classify("create tag", err)
	}
	return nil
}

// Update saves everything but the post count.
func (s *TagStore) Update(ctx context.Context, t *models.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tags SET title = $1, slug = $2, description = $3, color = $4
		WHERE id = $5`,
		t.Title, t.Slug, t.Description, t.Color, t.ID,
	)
	if err != nil {
		return classify("update tag", err)
	}
	return nil
}

// Delete removes a tag and, through the foreign key, its post_tags rows.
func (s *TagStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// AdjustCount adds delta to the tag's post count, never going below zero.
func (s *TagStore) AdjustCount(ctx context.Context, id int64, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tags SET post_count = GREATEST(post_count + $2, 0) WHERE id = $1`,
		id, delta)
	if err != nil {
		return fmt.Errorf("adjust tag count: %w", err)
	}
	return nil
}
