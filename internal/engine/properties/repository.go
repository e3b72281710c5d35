package properties

import (
	"context"
	"database/sql"
	"strings"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const propertySelect = `
	SELECT p.id, p.organization_id, p.name, p.address, p.city, p.state, p.zip_code, p.property_type,
	       p.total_units, p.description, p.created_at, p.updated_at,
	       (SELECT COUNT(*) FROM units u WHERE u.property_id = p.id),
	       (SELECT COUNT(*) FROM units u WHERE u.property_id = p.id AND u.status = 'occupied')
	FROM properties p`

type PropertyFilter struct {
	Search string
	State  string
	Limit  int
	Offset int
}

func (r *Repository) GetProperty(ctx context.Context, id string) (*Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, propertySelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("property")
	}
	return p, err
}

func (r *Repository) ListProperties(ctx context.Context, f PropertyFilter) ([]*Property, error) {
	var where []string
	var args []interface{}
	if f.Search != "" {
		where = append(where, "(p.name LIKE ? OR p.address LIKE ? OR p.city LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if f.State != "" {
		where = append(where, "p.state = ?")
		args = append(args, f.State)
	}

	query := propertySelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.name"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *Repository) InsertProperty(ctx context.Context, p *Property) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO properties (id, organization_id, name, address, city, state, zip_code, property_type,
			total_units, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OrganizationID, p.Name, p.Address, p.City, p.State, p.ZipCode, p.PropertyType,
		p.TotalUnits, p.Description, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) UpdateProperty(ctx context.Context, p *Property) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE properties SET name = ?, address = ?, city = ?, state = ?, zip_code = ?, property_type = ?,
			total_units = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Address, p.City, p.State, p.ZipCode, p.PropertyType, p.TotalUnits, p.Description, p.UpdatedAt, p.ID)
	return err
}

func (r *Repository) DeleteProperty(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	return err
}

func (r *Repository) CountUnits(ctx context.Context, propertyID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units WHERE property_id = ?`, propertyID).Scan(&n)
	return n, err
}

func (r *Repository) CountProperties(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&n)
	return n, err
}

func scanProperty(s database.Scanner) (*Property, error) {
	var p Property
	err := s.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Address, &p.City, &p.State, &p.ZipCode, &p.PropertyType,
		&p.TotalUnits, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.UnitCount, &p.OccupiedUnits)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const unitSelect = `
	SELECT u.id, u.property_id, u.unit_number, u.unit_type, u.bedrooms, u.bathrooms, u.square_feet,
	       u.rent_amount, u.status, u.created_at, u.updated_at, COALESCE(p.name, '')
	FROM units u
	LEFT JOIN properties p ON p.id = u.property_id`

type UnitFilter struct {
	PropertyID string
	Status     string
}

func (r *Repository) GetUnit(ctx context.Context, id string) (*Unit, error) {
	u, err := scanUnit(r.db.QueryRowContext(ctx, unitSelect+` WHERE u.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("unit")
	}
	return u, err
}

func (r *Repository) ListUnits(ctx context.Context, f UnitFilter) ([]*Unit, error) {
	var where []string
	var args []interface{}
	if f.PropertyID != "" {
		where = append(where, "u.property_id = ?")
		args = append(args, f.PropertyID)
	}
	if f.Status != "" {
		where = append(where, "u.status = ?")
		args = append(args, f.Status)
	}
	query := unitSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.name, u.unit_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []*Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *Repository) UnitNumberTaken(ctx context.Context, propertyID, unitNumber, exceptID string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM units WHERE property_id = ? AND unit_number = ? AND id <> ?)
	`, propertyID, unitNumber, exceptID).Scan(&taken)
	return taken, err
}

func (r *Repository) InsertUnit(ctx context.Context, u *Unit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO units (id, property_id, unit_number, unit_type, bedrooms, bathrooms, square_feet,
			rent_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.PropertyID, u.UnitNumber, u.UnitType, u.Bedrooms, u.Bathrooms, u.SquareFeet,
		u.RentAmount.String(), u.Status, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *Repository) UpdateUnit(ctx context.Context, u *Unit) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE units SET unit_number = ?, unit_type = ?, bedrooms = ?, bathrooms = ?, square_feet = ?,
			rent_amount = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, u.UnitNumber, u.UnitType, u.Bedrooms, u.Bathrooms, u.SquareFeet, u.RentAmount.String(), u.Status, u.UpdatedAt, u.ID)
	return err
}

func (r *Repository) DeleteUnit(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM units WHERE id = ?`, id)
	return err
}

// TenantCounts returns how many tenants reference the unit and how many of them are active.
func (r *Repository) TenantCounts(ctx context.Context, unitID string) (total, active int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0)
		FROM tenants WHERE unit_id = ?
	`, unitID).Scan(&total, &active)
	return total, active, err
}

func (r *Repository) UnitStatusCounts(ctx context.Context, propertyID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM units`
	var args []interface{}
	if propertyID != "" {
		query += ` WHERE property_id = ?`
		args = append(args, propertyID)
	}
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanUnit(s database.Scanner) (*Unit, error) {
	var u Unit
	err := s.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.UnitType, &u.Bedrooms, &u.Bathrooms, &u.SquareFeet,
		&u.RentAmount, &u.Status, &u.CreatedAt, &u.UpdatedAt, &u.PropertyName)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
