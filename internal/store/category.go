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

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db DBTX
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db DBTX) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, title, slug, description, post_count`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.PostCount); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns a category by ID. Returns nil if not found.
func (s *CategoryStore) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetBySlug returns a category by slug. Returns nil if not found.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

// GetAll returns every category ordered by title.
func (s *CategoryStore) GetAll(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create inserts a new category and sets its ID. A taken slug is reported
// as a conflict.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (title, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, post_count`,
		c.Title, c.Slug, c.Description,
	).Scan(&c.ID, &c.PostCount)
	if err != nil {
		return classify("create category", err)
	}
	return nil
}

// Update saves title, slug and description. The post count is owned by
// AdjustCount and never written here.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET title = $1, slug = $2, description = $3
		WHERE id = $4`,
		c.Title, c.Slug, c.Description, c.ID,
	)
	if err != nil {
		return classify("update category", err)
	}
	return nil
}

// Delete removes a category. Its posts become uncategorized.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AdjustCount adds delta to the category's post count, never going below zero.
func (s *CategoryStore) AdjustCount(ctx context.Context, id int64, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET post_count = GREATEST(post_count + $2, 0) WHERE id = $1`,
		id, delta)
	if err != nil {
		return fmt.Errorf("adjust category count: %w", err)
	}
	return nil
}
