// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/platform/database"
)

func open(t *testing.T, target string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)

	// Every pooled connection to :memory: would get its own empty database.
	db.SetMaxOpenConns(1)

	_, err = database.Migrate(context.Background(), db, target)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

// NewTenantDB returns an organization database with the tenant schema and seeded lookups.
func NewTenantDB(t *testing.T) *sql.DB {
	return open(t, database.TargetTenant)
}

// NewGlobalDB returns a database with the global schema.
func NewGlobalDB(t *testing.T) *sql.DB {
	return open(t, database.TargetGlobal)
}
