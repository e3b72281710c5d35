package tenants

import (
	"context"
	"database/sql"
	"strings"

	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const tenantSelect = `
	SELECT t.id, t.organization_id, t.unit_id, t.first_name, t.last_name, t.email, t.phone, t.ic_number,
	       t.nationality, t.work_permit_number, t.work_permit_expiry, t.emergency_contact_name,
	       t.emergency_contact_phone, t.lease_start_date, t.lease_end_date, t.move_in_date,
	       t.rent_amount, t.security_deposit, t.status, t.notes, t.created_at, t.updated_at,
	       COALESCE(u.unit_number, ''), COALESCE(u.property_id, ''), COALESCE(p.name, '')
	FROM tenants t
	LEFT JOIN units u ON u.id = t.unit_id
	LEFT JOIN properties p ON p.id = u.property_id`

type ListFilter struct {
	Status     string
	UnitID     string
	PropertyID string
	Search     string
	Limit      int
	Offset     int
}

func (r *Repository) Get(ctx context.Context, id string) (*Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx, tenantSelect+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("tenant")
	}
	return t, err
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]*Tenant, error) {
	var where []string
	var args []interface{}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.UnitID != "" {
		where = append(where, "t.unit_id = ?")
		args = append(args, f.UnitID)
	}
	if f.PropertyID != "" {
		where = append(where, "u.property_id = ?")
		args = append(args, f.PropertyID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(t.first_name || ' ' || t.last_name LIKE ? OR t.email LIKE ? OR t.phone LIKE ? OR t.ic_number LIKE ?)")
		args = append(args, like, like, like, like)
	}

	query := tenantSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.first_name, t.last_name"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, t *Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (
			id, organization_id, unit_id, first_name, last_name, email, phone, ic_number, nationality,
			work_permit_number, work_permit_expiry, emergency_contact_name, emergency_contact_phone,
			lease_start_date, lease_end_date, move_in_date, rent_amount, security_deposit, status, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrganizationID, dates.Nullable(t.UnitID), t.FirstName, t.LastName, t.Email, t.Phone, t.ICNumber,
		t.Nationality, t.WorkPermitNumber, dates.Nullable(t.WorkPermitExpiry), t.EmergencyContactName,
		t.EmergencyContactPhone, dates.Nullable(t.LeaseStartDate), dates.Nullable(t.LeaseEndDate),
		dates.Nullable(t.MoveInDate), t.RentAmount.String(), t.SecurityDeposit.String(), t.Status, t.Notes,
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *Repository) Update(ctx context.Context, t *Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET
			unit_id = ?, first_name = ?, last_name = ?, email = ?, phone = ?, ic_number = ?, nationality = ?,
			work_permit_number = ?, work_permit_expiry = ?, emergency_contact_name = ?, emergency_contact_phone = ?,
			lease_start_date = ?, lease_end_date = ?, move_in_date = ?, rent_amount = ?, security_deposit = ?,
			status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, dates.Nullable(t.UnitID), t.FirstName, t.LastName, t.Email, t.Phone, t.ICNumber, t.Nationality,
		t.WorkPermitNumber, dates.Nullable(t.WorkPermitExpiry), t.EmergencyContactName, t.EmergencyContactPhone,
		dates.Nullable(t.LeaseStartDate), dates.Nullable(t.LeaseEndDate), dates.Nullable(t.MoveInDate),
		t.RentAmount.String(), t.SecurityDeposit.String(), t.Status, t.Notes, t.UpdatedAt, t.ID)
	return err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	return err
}

func (r *Repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants WHERE status = ?`, status).Scan(&n)
	return n, err
}

// FinancialRecords counts payments, schedules and deposits that reference the tenant.
func (r *Repository) FinancialRecords(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM payments WHERE tenant_id = ?)
		     + (SELECT COUNT(*) FROM rent_schedules WHERE tenant_id = ?)
		     + (SELECT COUNT(*) FROM security_deposits WHERE tenant_id = ?)
	`, tenantID, tenantID, tenantID).Scan(&n)
	return n, err
}

func (r *Repository) UnitExists(ctx context.Context, unitID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM units WHERE id = ?)`, unitID).Scan(&exists)
	return exists, err
}

// ClaimUnit marks the unit occupied unless another active tenant already holds
// it. The check and the write are one statement, so concurrent claims cannot
// both succeed.
func (r *Repository) ClaimUnit(ctx context.Context, unitID, tenantID string, ts int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE units SET status = 'occupied', updated_at = ?
		WHERE id = ? AND NOT EXISTS (
			SELECT 1 FROM tenants WHERE unit_id = ? AND status = 'active' AND id <> ?
		)
	`, ts, unitID, unitID, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ReleaseUnit marks an occupied unit vacant. Units under maintenance keep their status.
func (r *Repository) ReleaseUnit(ctx context.Context, unitID string, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE units SET status = 'vacant', updated_at = ? WHERE id = ? AND status = 'occupied'
	`, ts, unitID)
	return err
}

func (r *Repository) RepointSchedules(ctx context.Context, tenantID, unitID string, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rent_schedules SET unit_id = ?, updated_at = ? WHERE tenant_id = ? AND is_active = 1
	`, unitID, ts, tenantID)
	return err
}

func (r *Repository) InsertLease(ctx context.Context, l *LeaseHistory) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lease_history (id, tenant_id, unit_id, start_date, end_date, rent_amount, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.TenantID, l.UnitID, l.StartDate, dates.Nullable(l.EndDate), l.RentAmount.String(), l.Status, l.Notes, l.CreatedAt)
	return err
}

// EndActiveLeases closes every open lease of the tenant on endDate.
func (r *Repository) EndActiveLeases(ctx context.Context, tenantID, endDate string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE lease_history SET status = 'ended', end_date = ? WHERE tenant_id = ? AND status = 'active'
	`, endDate, tenantID)
	return err
}

func (r *Repository) DeleteLeases(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lease_history WHERE tenant_id = ?`, tenantID)
	return err
}

func (r *Repository) ListLeases(ctx context.Context, tenantID string) ([]*LeaseHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.tenant_id, l.unit_id, l.start_date, l.end_date, l.rent_amount, l.status, l.notes,
		       l.created_at, COALESCE(u.unit_number, '')
		FROM lease_history l
		LEFT JOIN units u ON u.id = l.unit_id
		WHERE l.tenant_id = ?
		ORDER BY l.start_date, l.created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leases := []*LeaseHistory{}
	for rows.Next() {
		var l LeaseHistory
		var endDate sql.NullString
		if err := rows.Scan(&l.ID, &l.TenantID, &l.UnitID, &l.StartDate, &endDate, &l.RentAmount, &l.Status,
			&l.Notes, &l.CreatedAt, &l.UnitNumber); err != nil {
			return nil, err
		}
		l.EndDate = dates.FromNull(endDate)
		leases = append(leases, &l)
	}
	return leases, rows.Err()
}

func scanTenant(s database.Scanner) (*Tenant, error) {
	var t Tenant
	var unitID, permitExpiry, leaseStart, leaseEnd, moveIn sql.NullString
	err := s.Scan(&t.ID, &t.OrganizationID, &unitID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.ICNumber,
		&t.Nationality, &t.WorkPermitNumber, &permitExpiry, &t.EmergencyContactName,
		&t.EmergencyContactPhone, &leaseStart, &leaseEnd, &moveIn,
		&t.RentAmount, &t.SecurityDeposit, &t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
		&t.UnitNumber, &t.PropertyID, &t.PropertyName)
	if err != nil {
		return nil, err
	}
	t.UnitID = dates.FromNull(unitID)
	t.WorkPermitExpiry = dates.FromNull(permitExpiry)
	t.LeaseStartDate = dates.FromNull(leaseStart)
	t.LeaseEndDate = dates.FromNull(leaseEnd)
	t.MoveInDate = dates.FromNull(moveIn)
	return &t, nil
}
