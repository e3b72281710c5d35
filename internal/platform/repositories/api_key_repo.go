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

const apiKeyColumns = `id, organization_id, user_id, name, key_prefix, scopes, last_used_at, created_at, expires_at, revoked_at`

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()
	if key.Scopes == nil {
		key.Scopes = []string{}
	}

	scopesJSON, err := json.Marshal(key.Scopes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, organization_id, user_id, name, key_hash, key_prefix, scopes, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.OrganizationID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, string(scopesJSON), key.CreatedAt, key.ExpiresAt)
	return err
}

// GetByHash returns nil, nil for an unknown key.
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	k, err := scanAPIKey(r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k.KeyHash = hash
	return k, nil
}

func (r *APIKeyRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE organization_id = ? ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke only touches keys owned by orgID and reports whether one was revoked.
func (r *APIKeyRepository) Revoke(ctx context.Context, orgID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET revoked_at = ? WHERE id = ? AND organization_id = ? AND revoked_at IS NULL`,
		time.Now().Unix(), id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func scanAPIKey(s database.Scanner) (*models.APIKey, error) {
	var k models.APIKey
	var scopesStr string
	var lastUsedAt, expiresAt, revokedAt sql.NullInt64

	err := s.Scan(&k.ID, &k.OrganizationID, &k.UserID, &k.Name, &k.KeyPrefix, &scopesStr, &lastUsedAt, &k.CreatedAt, &expiresAt, &revokedAt)
	if err != nil {
		return nil, err
	}

	k.LastUsedAt = nullInt64Ptr(lastUsedAt)
	k.ExpiresAt = nullInt64Ptr(expiresAt)
	k.RevokedAt = nullInt64Ptr(revokedAt)
	json.Unmarshal([]byte(scopesStr), &k.Scopes)
	return &k, nil
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
