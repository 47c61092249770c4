package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"quillpress/internal/settings"
)

// Default seed values.
const (
	SeedAdminEmail      = "admin@quillpress.local"
	SeedAdminUserName   = "admin"
	SeedDefaultCategory = "Uncategorized"
	seedDefaultCatSlug  = "uncategorized"
	seedDefaultPassword = "admin"
)

// Seed populates an empty database with an admin author, the default
// category and the default settings. It does nothing when users exist. An
// empty adminPassword uses the development default.
func Seed(db *sql.DB, adminPassword string) error {
	ctx := context.Background()

	// Check if any users exist already.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	if adminPassword == "" {
		adminPassword = seedDefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (user_name, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
	`, SeedAdminUserName, SeedAdminEmail, string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var categoryID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO categories (title, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title
		RETURNING id
	`, SeedDefaultCategory, seedDefaultCatSlug).Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	blog := settings.DefaultBlog()
	blog.DefaultCategoryID = categoryID
	for k, v := range settings.Values(settings.DefaultCore(), blog) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`, k, v)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"default_password", adminPassword == seedDefaultPassword,
		"default_category_id", strconv.FormatInt(categoryID, 10),
	)

	return nil
}
