package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/global/*.sql migrations/tenant/*.sql
var migrationFS embed.FS

const (
	TargetGlobal = "global"
	TargetTenant = "tenant"
)

// Migrate applies every embedded migration for target that is not yet recorded
// in schema_migrations. Each file runs in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, target string) (int, error) {
	if target != TargetGlobal && target != TargetTenant {
		return 0, fmt.Errorf("unknown migration target %q", target)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	dir := path.Join("migrations", target)
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return 0, fmt.Errorf("read migration directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")

		var exists int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}

		err = WithTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				version, time.Now().Unix())
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, err)
		}

		log.Info().Str("target", target).Str("version", version).Msg("Applied migration")
		applied++
	}

	return applied, nil
}
