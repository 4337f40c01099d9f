// Package dbtest opens the Postgres database named by DATABASE_URL for integration tests.
package dbtest

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"org-access-api/backend/internal/db"
	"org-access-api/backend/internal/db/migrate"
)

// Open returns a migrated database, or skips t when DATABASE_URL is unset or unreachable.
// The connection is closed when t finishes. Tests share the schema, so they must use unique ids.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("Database connection failed (expected in test environment): %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	return conn
}
