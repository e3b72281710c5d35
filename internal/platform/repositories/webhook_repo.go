package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

const webhookColumns = `id, url, events, secret, status, retry_count, last_triggered_at, last_error, created_at, updated_at`

// WebhookRepository lives in the organization's tenant database.
type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	now := time.Now().Unix()
	webhook.ID = "wh_" + uuid.New().String()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now
	webhook.Status = "active"

	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, url, events, secret, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, webhook.ID, webhook.URL, string(eventsJSON), webhook.Secret, webhook.Status, webhook.CreatedAt, webhook.UpdatedAt)
	return err
}

// GetByID returns nil, nil for an unknown webhook.
func (r *WebhookRepository) GetByID(ctx context.Context, id string) (*models.Webhook, error) {
	w, err := scanWebhook(r.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

func (r *WebhookRepository) List(ctx context.Context) ([]*models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	webhooks := []*models.Webhook{}
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (r *WebhookRepository) Update(ctx context.Context, webhook *models.Webhook) error {
	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}
	webhook.UpdatedAt = time.Now().Unix()

	_, err = r.db.ExecContext(ctx, `
		UPDATE webhooks
		SET url = ?, events = ?, secret = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, webhook.URL, string(eventsJSON), webhook.Secret, webhook.Status, webhook.UpdatedAt, webhook.ID)
	return err
}

func (r *WebhookRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

// GetByEvent returns the active webhooks subscribed to eventType. Events are a JSON
// array per row, so matching happens in Go.
func (r *WebhookRepository) GetByEvent(ctx context.Context, eventType string) ([]*models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE status = 'active'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*models.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		if w.Subscribes(eventType) {
			matched = append(matched, w)
		}
	}
	return matched, rows.Err()
}

// RecordSuccess resets the failure counters after a delivery.
func (r *WebhookRepository) RecordSuccess(ctx context.Context, id string, timestamp int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE webhooks SET last_triggered_at = ?, retry_count = 0, last_error = NULL WHERE id = ?`, timestamp, id)
	return err
}

// RecordFailure bumps retry_count and stores the error; nothing re-sends automatically.
func (r *WebhookRepository) RecordFailure(ctx context.Context, id string, timestamp int64, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhooks SET last_triggered_at = ?, retry_count = retry_count + 1, last_error = ? WHERE id = ?
	`, timestamp, lastError, id)
	return err
}

func scanWebhook(s database.Scanner) (*models.Webhook, error) {
	var w models.Webhook
	var eventsStr string
	var lastTriggeredAt sql.NullInt64
	var lastError sql.NullString

	err := s.Scan(&w.ID, &w.URL, &eventsStr, &w.Secret, &w.Status, &w.RetryCount, &lastTriggeredAt, &lastError, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastTriggeredAt.Valid {
		w.LastTriggeredAt = lastTriggeredAt.Int64
	}
	if lastError.Valid {
		w.LastError = lastError.String
	}
	json.Unmarshal([]byte(eventsStr), &w.Events)
	return &w, nil
}
