// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quillpress/internal/logging"
)

// InvalidationRetention is how long invalidation rows are kept before
// PruneBefore removes them at startup.
const InvalidationRetention = 30 * 24 * time.Hour

// Invalidation is one row of the invalidation audit trail: which entity
// change dropped the cached aggregates, and when.
type Invalidation struct {
	ID            int64
	EntityType    string
	EntityID      int64
	Action        string
	InvalidatedAt time.Time
}

// CacheLogStore writes and reads the invalidation audit trail.
type CacheLogStore struct {
	db *sql.DB
}

func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log appends an invalidation row. Failures are logged and swallowed so
// the write that triggered the invalidation is never affected.
func (s *CacheLogStore) Log(ctx context.Context, entityType string, entityID int64, action string) {
	log := logging.From(ctx).With("entity_type", entityType, "entity_id", entityID, "action", action)

	const q = `INSERT INTO cache_invalidation_log (entity_type, entity_id, action) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, entityType, entityID, action); err != nil {
		log.Warn("invalidation not recorded", "error", err)
		return
	}
	log.Debug("invalidation recorded")
}

// Recent returns up to limit rows, newest first. An empty entityType
// matches every entity.
func (s *CacheLogStore) Recent(ctx context.Context, entityType string, limit int) ([]Invalidation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, invalidated_at
		FROM cache_invalidation_log
		WHERE $1::text = '' OR entity_type = $1
		ORDER BY invalidated_at DESC, id DESC
		LIMIT $2
	`, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("query invalidations: %w", err)
	}
	defer rows.Close()

	var out []Invalidation
	for rows.Next() {
		var inv Invalidation
		if err := rows.Scan(&inv.ID, &inv.EntityType, &inv.EntityID, &inv.Action, &inv.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan invalidation: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// PruneBefore deletes rows recorded before cutoff and reports how many
// were removed.
func (s *CacheLogStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_invalidation_log WHERE invalidated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune invalidations: %w", err)
	}
	return res.RowsAffected()
}
