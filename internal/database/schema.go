// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Table maps a database table to the entity stored in it.
type Table struct {
	Name    string
	Entity  string
	Columns []string
}

// Tables is the complete list of tables the application reads and writes.
// Adding an entity means adding a migration and an entry here.
var Tables = []Table{
	{Name: "users", Entity: "models.User", Columns: []string{"id", "user_name", "email", "display_name", "password_hash", "created_on"}},
	{Name: "categories", Entity: "models.Category", Columns: []string{"id", "title", "slug", "description", "post_count"}},
	{Name: "tags", Entity: "models.Tag", Columns: []string{"id", "title", "slug", "description", "color", "post_count"}},
	{Name: "posts", Entity: "models.Post", Columns: []string{
		"id", "user_id", "category_id", "title", "slug", "body", "body_mark", "excerpt",
		"status", "comment_status", "created_on", "updated_on", "view_count", "comment_count",
	}},
	{Name: "post_tags", Entity: "models.PostTag", Columns: []string{"post_id", "tag_id"}},
	{Name: "media", Entity: "models.Media", Columns: []string{
		"id", "user_id", "file_name", "title", "caption", "alt", "content_type",
		"media_type", "length", "width", "height", "uploaded_on",
	}},
	{Name: "meta", Entity: "models.Meta", Columns: []string{"key", "value", "updated_at"}},
	{Name: "cache_invalidation_log", Entity: "store.Invalidation", Columns: []string{"id", "entity_type", "entity_id", "action", "invalidated_at"}},
}

// VerifySchema checks that every table in Tables exists with all of its
// registered columns.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	for _, t := range Tables {
		rows, err := db.QueryContext(ctx, `
			SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1`, t.Name)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", t.Name, err)
		}
		have := make(map[string]bool)
		for rows.Next() {
			var col string
			if err := rows.Scan(&col); err != nil {
				rows.Close()
				return fmt.Errorf("scan column of %s: %w", t.Name, err)
			}
			have[col] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("inspect table %s: %w", t.Name, err)
		}

		if len(have) == 0 {
			return fmt.Errorf("schema: table %s is missing", t.Name)
		}
		var missing []string
		for _, c := range t.Columns {
			if !have[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("schema: table %s is missing columns %s", t.Name, strings.Join(missing, ", "))
		}
	}
	return nil
}
