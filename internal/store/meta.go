// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quillpress/internal/models"
)

// MetaStore manages key/value settings rows.
type MetaStore struct {
	db *sql.DB
}

// NewMetaStore returns a new MetaStore backed by the given database.
func NewMetaStore(db *sql.DB) *MetaStore {
	return &MetaStore{db: db}
}

// All returns every meta row as a convenience map.
func (s *MetaStore) All(ctx context.Context) (models.MetaValues, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list meta: %w", err)
	}
	defer rows.Close()

	vals := make(models.MetaValues)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		vals[k] = v
	}
	return vals, rows.Err()
}

// Get returns a single value by key, or the fallback if not found or empty.
func (s *MetaStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get meta: %w", err)
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

const upsertMeta = `
	INSERT INTO meta (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Set upserts a single value.
func (s *MetaStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertMeta, key, value, time.Now()); err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// SetMany upserts several values in a single transaction.
func (s *MetaStore) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin meta transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMeta)
	if err != nil {
		return fmt.Errorf("prepare meta upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
			return fmt.Errorf("set meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}
