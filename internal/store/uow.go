// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"quillpress/internal/blog"
)

// Repositories returns repositories bound directly to the pool.
func Repositories(db DBTX) blog.Repositories {
	return blog.Repositories{
		Posts:      NewPostStore(db),
		Categories: NewCategoryStore(db),
		Tags:       NewTagStore(db),
	}
}

// UnitOfWork runs blog writes inside a database transaction.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a UnitOfWork on the given pool.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do begins a transaction, hands fn repositories bound to it, and commits
// when fn succeeds. Any error, panic or context cancellation rolls back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, r blog.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, Repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
