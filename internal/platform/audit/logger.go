package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"propertyhub/internal/platform/models"
)

// Actor identifies who performed an audited action.
type Actor struct {
	OrganizationID string
	UserID         string
	IPAddress      string
	UserAgent      string
}

type Logger struct {
	globalDB *sql.DB
	now      func() time.Time
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{globalDB: db, now: time.Now}
}

// Log records an entry asynchronously. Failures are logged and never surface to the caller.
func (l *Logger) Log(ctx context.Context, actor Actor, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := l.newEntry(actor, action, resourceType, resourceID, metadata)

	go func() {
		if err := l.insert(context.WithoutCancel(ctx), entry); err != nil {
			log.Error().Err(err).
				Str("org_id", entry.OrganizationID).
				Str("action", entry.Action).
				Msg("Failed to write audit log")
		}
	}()
}

// LogSync is Log without the goroutine, used by the CLI and tests.
func (l *Logger) LogSync(ctx context.Context, actor Actor, action, resourceType, resourceID string, metadata map[string]interface{}) error {
	return l.insert(ctx, l.newEntry(actor, action, resourceType, resourceID, metadata))
}

func (l *Logger) newEntry(actor Actor, action, resourceType, resourceID string, metadata map[string]interface{}) *models.AuditLog {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	ip, ua := actor.IPAddress, actor.UserAgent
	if ip == "" {
		ip = "unknown"
	}
	if ua == "" {
		ua = "unknown"
	}
	return &models.AuditLog{
		ID:             "audit_" + uuid.New().String(),
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		IPAddress:      ip,
		UserAgent:      ua,
		CreatedAt:      l.now().Unix(),
	}
}

func (l *Logger) insert(ctx context.Context, e *models.AuditLog) error {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	_, err = l.globalDB.ExecContext(ctx, `
		INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.OrganizationID, e.UserID, e.Action, e.ResourceType, e.ResourceID, string(metaJSON), e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

// List returns the most recent entries for an organization, newest first.
func (l *Logger) List(ctx context.Context, orgID string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := l.globalDB.QueryContext(ctx, `
		SELECT id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs WHERE organization_id = ? ORDER BY created_at DESC, id LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		var e models.AuditLog
		var metaStr string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&metaStr, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(metaStr), &e.Metadata)
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}
