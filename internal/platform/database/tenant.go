package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"propertyhub/internal/platform/config"
)

// TenantContext is what the tenant middleware resolves for each authenticated request.
type TenantContext struct {
	OrgID   string
	OrgSlug string
	DB      *sql.DB
}

// TenantDBPool keeps one *sql.DB per organization database file.
type TenantDBPool struct {
	pools  map[string]*sql.DB
	mu     sync.RWMutex
	config config.TenantDBConfig
}

func NewTenantDBPool(cfg config.TenantDBConfig) *TenantDBPool {
	return &TenantDBPool{
		pools:  make(map[string]*sql.DB),
		config: cfg,
	}
}

// PathFor is the convention used when an organization is created.
func (p *TenantDBPool) PathFor(slug string) string {
	return filepath.Join(p.config.BasePath, slug+".db")
}

func (p *TenantDBPool) Get(orgID string, dbPath string) (*sql.DB, error) {
	p.mu.RLock()
	if db, exists := p.pools[orgID]; exists {
		p.mu.RUnlock()
		return db, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if db, exists := p.pools[orgID]; exists {
		return db, nil
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create tenant db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&%s", dbPath, sqliteParams)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	maxConns := p.config.MaxConnectionsPerOrg
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	p.pools[orgID] = db
	return db, nil
}

// Evict closes and forgets an organization's connection, e.g. after it is canceled.
func (p *TenantDBPool) Evict(orgID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.pools[orgID]; ok {
		db.Close()
		delete(p.pools, orgID)
	}
}

func (p *TenantDBPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, db := range p.pools {
		db.Close()
	}
	p.pools = make(map[string]*sql.DB)
}
