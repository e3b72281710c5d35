package payments

import (
	"context"
	"database/sql"
	"strings"

	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
)

// Repository runs against either the tenant *sql.DB or a *sql.Tx.
type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const paymentSelect = `
	SELECT p.id, p.tenant_id, p.unit_id, p.payment_type_id, p.amount, p.paid_amount,
	       p.due_date, p.paid_date, p.status, p.description, p.is_recurring, p.recurring_period,
	       p.late_fee_payment_id, p.created_at, p.updated_at,
	       COALESCE(t.first_name || ' ' || t.last_name, ''), COALESCE(u.unit_number, ''),
	       COALESCE(pt.display_name, ''), COALESCE(pt.name, '')
	FROM payments p
	LEFT JOIN tenants t ON t.id = p.tenant_id
	LEFT JOIN units u ON u.id = p.unit_id
	LEFT JOIN payment_types pt ON pt.id = p.payment_type_id`

func (r *Repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("payment")
	}
	return p, err
}

type ListFilter struct {
	TenantID   string
	UnitID     string
	PropertyID string
	Status     string // effective status; "overdue" and "pending" are split on today
	TypeID     string
	TypeName   string
	DueFrom    string
	DueTo      string
	Limit      int
	Offset     int
}

// ListPayments orders by due date, newest first. today is needed to split pending from overdue.
func (r *Repository) ListPayments(ctx context.Context, f ListFilter, today string) ([]*Payment, error) {
	var where []string
	var args []interface{}

	if f.TenantID != "" {
		where = append(where, "p.tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.UnitID != "" {
		where = append(where, "p.unit_id = ?")
		args = append(args, f.UnitID)
	}
	if f.PropertyID != "" {
		where = append(where, "u.property_id = ?")
		args = append(args, f.PropertyID)
	}
	switch f.Status {
	case "":
	case StatusOverdue:
		where = append(where, "p.status = 'pending' AND p.due_date < ?")
		args = append(args, today)
	case StatusPending:
		where = append(where, "p.status = 'pending' AND p.due_date >= ?")
		args = append(args, today)
	default:
		where = append(where, "p.status = ?")
		args = append(args, f.Status)
	}
	if f.TypeID != "" {
		where = append(where, "p.payment_type_id = ?")
		args = append(args, f.TypeID)
	}
	if f.TypeName != "" {
		where = append(where, "pt.name = ?")
		args = append(args, f.TypeName)
	}
	if f.DueFrom != "" {
		where = append(where, "p.due_date >= ?")
		args = append(args, f.DueFrom)
	}
	if f.DueTo != "" {
		where = append(where, "p.due_date <= ?")
		args = append(args, f.DueTo)
	}

	query := paymentSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.due_date DESC, p.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *Repository) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, tenant_id, unit_id, payment_type_id, amount, paid_amount, due_date, paid_date,
			status, description, is_recurring, recurring_period, late_fee_payment_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.TenantID, nullString(p.UnitID), p.PaymentTypeID, p.Amount.String(), p.PaidAmount.String(),
		p.DueDate, dates.Nullable(p.PaidDate), p.Status, p.Description, p.IsRecurring, p.RecurringPeriod,
		nullString(p.LateFeePaymentID), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) UpdatePayment(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET
			unit_id = ?, amount = ?, paid_amount = ?, due_date = ?, paid_date = ?, status = ?,
			description = ?, late_fee_payment_id = ?, updated_at = ?
		WHERE id = ?
	`, nullString(p.UnitID), p.Amount.String(), p.PaidAmount.String(), p.DueDate, dates.Nullable(p.PaidDate),
		p.Status, p.Description, nullString(p.LateFeePaymentID), p.UpdatedAt, p.ID)
	return err
}

func (r *Repository) DeletePayment(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	return err
}

// RentPaymentExists reports whether tenantID already has a payment of typeID due in [from, to).
// Cancelled payments do not count, so a cancelled rent can be generated again.
func (r *Repository) RentPaymentExists(ctx context.Context, tenantID, typeID, from, to string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM payments
			WHERE tenant_id = ? AND payment_type_id = ? AND due_date >= ? AND due_date < ?
			  AND status <> 'cancelled'
		)
	`, tenantID, typeID, from, to).Scan(&exists)
	return exists, err
}

// LateFeeCandidates returns open payments of typeID for a tenant that have no late fee attached yet.
func (r *Repository) LateFeeCandidates(ctx context.Context, tenantID, typeID string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, paymentSelect+`
		WHERE p.tenant_id = ? AND p.payment_type_id = ?
		  AND p.status IN ('pending', 'partial') AND p.late_fee_payment_id IS NULL
		ORDER BY p.due_date
	`, tenantID, typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) InsertTransaction(ctx context.Context, t *Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (id, payment_id, payment_method_id, amount, transaction_date, reference_number, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.PaymentID, t.PaymentMethodID, t.Amount.String(), t.TransactionDate, t.ReferenceNumber, t.Notes, t.CreatedAt)
	return err
}

func (r *Repository) ListTransactions(ctx context.Context, paymentID string) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tx.id, tx.payment_id, tx.payment_method_id, tx.amount, tx.transaction_date,
		       tx.reference_number, tx.notes, tx.created_at, COALESCE(pm.display_name, '')
		FROM payment_transactions tx
		LEFT JOIN payment_methods pm ON pm.id = tx.payment_method_id
		WHERE tx.payment_id = ?
		ORDER BY tx.transaction_date, tx.created_at
	`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []*Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.PaymentMethodID, &t.Amount, &t.TransactionDate,
			&t.ReferenceNumber, &t.Notes, &t.CreatedAt, &t.PaymentMethodName); err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}

func (r *Repository) CountTransactions(ctx context.Context, paymentID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_transactions WHERE payment_id = ?`, paymentID).Scan(&n)
	return n, err
}

func (r *Repository) ListPaymentTypes(ctx context.Context) ([]*PaymentType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, display_name FROM payment_types ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []*PaymentType{}
	for rows.Next() {
		var t PaymentType
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName); err != nil {
			return nil, err
		}
		types = append(types, &t)
	}
	return types, rows.Err()
}

func (r *Repository) GetPaymentType(ctx context.Context, id string) (*PaymentType, error) {
	var t PaymentType
	err := r.db.QueryRowContext(ctx, `SELECT id, name, display_name FROM payment_types WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.DisplayName)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("payment type")
	}
	return &t, err
}

func (r *Repository) GetPaymentTypeByName(ctx context.Context, name string) (*PaymentType, error) {
	var t PaymentType
	err := r.db.QueryRowContext(ctx, `SELECT id, name, display_name FROM payment_types WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.DisplayName)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("payment type")
	}
	return &t, err
}

func (r *Repository) ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, display_name FROM payment_methods ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []*PaymentMethod{}
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.DisplayName); err != nil {
			return nil, err
		}
		methods = append(methods, &m)
	}
	return methods, rows.Err()
}

func (r *Repository) PaymentMethodExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payment_methods WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// TenantUnit returns the tenant's current unit (nil when unassigned) or ErrNotFound.
func (r *Repository) TenantUnit(ctx context.Context, tenantID string) (*string, error) {
	var unitID sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT unit_id FROM tenants WHERE id = ?`, tenantID).Scan(&unitID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("tenant")
	}
	if err != nil {
		return nil, err
	}
	return dates.FromNull(unitID), nil
}

func scanPayment(s database.Scanner) (*Payment, error) {
	var p Payment
	var unitID, paidDate, lateFeeID sql.NullString

	err := s.Scan(&p.ID, &p.TenantID, &unitID, &p.PaymentTypeID, &p.Amount, &p.PaidAmount,
		&p.DueDate, &paidDate, &p.Status, &p.Description, &p.IsRecurring, &p.RecurringPeriod,
		&lateFeeID, &p.CreatedAt, &p.UpdatedAt,
		&p.TenantName, &p.UnitNumber, &p.PaymentTypeName, &p.PaymentTypeCode)
	if err != nil {
		return nil, err
	}
	p.UnitID = dates.FromNull(unitID)
	p.PaidDate = dates.FromNull(paidDate)
	p.LateFeePaymentID = dates.FromNull(lateFeeID)
	return &p, nil
}

func nullString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
