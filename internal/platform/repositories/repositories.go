package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

const orgColumns = `id, name, slug, subscription_plan, subscription_status, trial_ends_at, db_file_path, webhook_secret, created_at, updated_at`

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) DB() *sql.DB {
	return r.db
}

func (r *OrganizationRepository) CreateTx(ctx context.Context, tx *sql.Tx, org *models.Organization) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO organizations (`+orgColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.Slug, org.SubscriptionPlan, org.SubscriptionStatus, org.TrialEndsAt,
		org.DBFilePath, org.WebhookSecret, org.CreatedAt, org.UpdatedAt)
	return err
}

// GetByID returns nil, nil when the organization does not exist.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return org, err
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = ?`, slug)
	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return org, err
}

type OrganizationFilter struct {
	Status string
	Search string // matched case-insensitively against name and slug
	Limit  int
	Offset int
}

// List returns a page of organizations plus the total number matching the filter.
func (r *OrganizationRepository) List(ctx context.Context, f OrganizationFilter) ([]*models.Organization, int, error) {
	var where []string
	var args []interface{}

	if f.Status != "" {
		where = append(where, "subscription_status = ?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(name LIKE ? OR slug LIKE ?)")
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM organizations"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := "SELECT " + orgColumns + " FROM organizations" + clause + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}
	return orgs, total, rows.Err()
}

// ListAccessible returns organizations the scheduled jobs should run for.
func (r *OrganizationRepository) ListAccessible(ctx context.Context, now int64) ([]*models.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orgColumns+` FROM organizations
		WHERE subscription_status = 'active'
		   OR (subscription_status = 'trial' AND (trial_ends_at IS NULL OR trial_ends_at > ?))
		ORDER BY created_at
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, subscription_plan = ?, subscription_status = ?, trial_ends_at = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, org.SubscriptionPlan, org.SubscriptionStatus, org.TrialEndsAt, org.UpdatedAt, org.ID)
	return err
}

func (r *OrganizationRepository) Stats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{
		ByStatus: make(map[string]int),
		ByPlan:   make(map[string]int),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT subscription_status, subscription_plan, COUNT(*)
		FROM organizations GROUP BY subscription_status, subscription_plan
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, plan string
		var count int
		if err := rows.Scan(&status, &plan, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] += count
		stats.ByPlan[plan] += count
		stats.TotalOrganizations += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL AND is_super_admin = 0`).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	return stats, nil
}

func scanOrganization(s database.Scanner) (*models.Organization, error) {
	var org models.Organization
	var trialEndsAt sql.NullInt64

	err := s.Scan(&org.ID, &org.Name, &org.Slug, &org.SubscriptionPlan, &org.SubscriptionStatus, &trialEndsAt,
		&org.DBFilePath, &org.WebhookSecret, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if trialEndsAt.Valid {
		v := trialEndsAt.Int64
		org.TrialEndsAt = &v
	}
	return &org, nil
}

const userColumns = `id, organization_id, email, password_hash, full_name, role, is_super_admin, last_login_at, created_at, updated_at, deleted_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateTx(ctx context.Context, tx *sql.Tx, user *models.User) error {
	return insertUser(ctx, tx, user)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return insertUser(ctx, r.db, user)
}

func insertUser(ctx context.Context, db database.DBTX, user *models.User) error {
	var orgID interface{}
	if user.OrganizationID != "" {
		orgID = user.OrganizationID
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, organization_id, email, password_hash, full_name, role, is_super_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, orgID, user.Email, user.PasswordHash, user.FullName, user.Role, user.IsSuperAdmin, user.CreatedAt, user.UpdatedAt)
	return err
}

// GetByID returns nil, nil when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE organization_id = ? AND deleted_at IS NULL
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID, role string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().Unix(), userID)
	return err
}

func (r *UserRepository) SoftDelete(ctx context.Context, userID string) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, userID)
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, timestamp int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, timestamp, userID)
	return err
}

func scanUser(s database.Scanner) (*models.User, error) {
	var u models.User
	var orgID sql.NullString
	var lastLogin, deletedAt sql.NullInt64

	err := s.Scan(&u.ID, &orgID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsSuperAdmin,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	u.OrganizationID = orgID.String
	if lastLogin.Valid {
		v := lastLogin.Int64
		u.LastLoginAt = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Int64
		u.DeletedAt = &v
	}
	return &u, nil
}
