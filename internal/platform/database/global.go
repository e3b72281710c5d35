package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"propertyhub/internal/platform/config"
)

const sqliteParams = "_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"

// NewGlobalDB opens the shared SQLite database holding organizations, users,
// API keys and the audit trail. URLs may be given as "file:path" or a bare path.
func NewGlobalDB(cfg config.GlobalDBConfig) (*sql.DB, error) {
	path := strings.TrimPrefix(cfg.URL, "file:")
	if path == "" {
		return nil, fmt.Errorf("database.global.url is empty")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create global db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, sqliteParams))
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
