// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"quillpress/internal/database"
	"quillpress/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "quillpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "quillpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// unique returns name with a short random suffix so parallel runs against
// a shared database do not collide.
func unique(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

// testUser inserts a throwaway author and removes it, with its posts and
// media, when the test finishes.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	name := unique("store-test")
	u, err := NewUserStore(db).Create(context.Background(), name, name+"@store-test.local", "testpass123", "Store Test")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM posts WHERE user_id = $1", u.ID)
		db.Exec("DELETE FROM media WHERE user_id = $1", u.ID)
		db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// testCategory inserts a category removed at cleanup.
func testCategory(t *testing.T, db *sql.DB, title string) *models.Category {
	t.Helper()
	c := &models.Category{Title: title, Slug: unique("cat")}
	if err := NewCategoryStore(db).Create(context.Background(), c); err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	return c
}

// testTag inserts a tag removed at cleanup.
func testTag(t *testing.T, db *sql.DB, title string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Title: title, Slug: unique("tag")}
	if err := NewTagStore(db).Create(context.Background(), tag); err != nil {
		t.Fatalf("create test tag: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM tags WHERE id = $1", tag.ID) })
	return tag
}
