package payments

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/currency"
	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
)

const depositSelect = `
	SELECT id, tenant_id, unit_id, amount, received_date, refund_amount, refund_date,
	       total_deductions, deduction_notes, status, created_at, updated_at
	FROM security_deposits`

type DepositFilter struct {
	TenantID string
	Status   string
}

func (r *Repository) GetDeposit(ctx context.Context, id string) (*SecurityDeposit, error) {
	d, err := scanDeposit(r.db.QueryRowContext(ctx, depositSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("security deposit")
	}
	return d, err
}

func (r *Repository) ListDeposits(ctx context.Context, f DepositFilter) ([]*SecurityDeposit, error) {
	var where []string
	var args []interface{}
	if f.TenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := depositSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY received_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deposits := []*SecurityDeposit{}
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func (r *Repository) InsertDeposit(ctx context.Context, d *SecurityDeposit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_deposits (
			id, tenant_id, unit_id, amount, received_date, refund_amount, refund_date,
			total_deductions, deduction_notes, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.TenantID, d.UnitID, d.Amount.String(), d.ReceivedDate, d.RefundAmount, dates.Nullable(d.RefundDate),
		d.TotalDeductions.String(), d.DeductionNotes, d.Status, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *Repository) UpdateDeposit(ctx context.Context, d *SecurityDeposit) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE security_deposits SET
			refund_amount = ?, refund_date = ?, total_deductions = ?, deduction_notes = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, d.RefundAmount, dates.Nullable(d.RefundDate), d.TotalDeductions.String(), d.DeductionNotes, d.Status, d.UpdatedAt, d.ID)
	return err
}

func scanDeposit(s database.Scanner) (*SecurityDeposit, error) {
	var d SecurityDeposit
	var refundDate sql.NullString
	err := s.Scan(&d.ID, &d.TenantID, &d.UnitID, &d.Amount, &d.ReceivedDate, &d.RefundAmount, &refundDate,
		&d.TotalDeductions, &d.DeductionNotes, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.RefundDate = dates.FromNull(refundDate)
	return &d, nil
}

type DepositInput struct {
	TenantID     string
	UnitID       *string
	Amount       decimal.Decimal
	ReceivedDate string
}

func (s *Service) RecordDeposit(ctx context.Context, in DepositInput) (*SecurityDeposit, error) {
	if in.ReceivedDate == "" {
		in.ReceivedDate = s.today()
	}
	var verrs apperrors.ValidationErrors
	if in.TenantID == "" {
		verrs.Add("tenant_id", "is required")
	}
	if !in.Amount.IsPositive() {
		verrs.Add("amount", "must be greater than zero")
	}
	verrs.AddErr("received_date", dates.Valid("received_date", in.ReceivedDate))
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	unitID, err := s.repo.TenantUnit(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if in.UnitID != nil && *in.UnitID != "" {
		unitID = in.UnitID
	}
	if unitID == nil {
		return nil, apperrors.NewValidationError("unit_id", "tenant has no unit; unit_id is required")
	}

	ts := s.now().Unix()
	d := &SecurityDeposit{
		ID:              "dep_" + uuid.New().String(),
		TenantID:        in.TenantID,
		UnitID:          *unitID,
		Amount:          in.Amount,
		ReceivedDate:    in.ReceivedDate,
		TotalDeductions: decimal.Zero,
		Status:          DepositHeld,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.repo.InsertDeposit(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDeposit(ctx context.Context, id string) (*SecurityDeposit, error) {
	return s.repo.GetDeposit(ctx, id)
}

func (s *Service) ListDeposits(ctx context.Context, f DepositFilter) ([]*SecurityDeposit, error) {
	return s.repo.ListDeposits(ctx, f)
}

type RefundInput struct {
	RefundAmount   decimal.Decimal
	Deductions     decimal.Decimal
	DeductionNotes string
	RefundDate     string
}

// RefundDeposit settles a held deposit. Refund plus deductions may not exceed
// the deposit amount.
func (s *Service) RefundDeposit(ctx context.Context, id string, in RefundInput) (*SecurityDeposit, error) {
	if in.RefundDate == "" {
		in.RefundDate = s.today()
	}

	var verrs apperrors.ValidationErrors
	if in.RefundAmount.IsNegative() {
		verrs.Add("refund_amount", "cannot be negative")
	}
	if in.Deductions.IsNegative() {
		verrs.Add("deductions", "cannot be negative")
	}
	verrs.AddErr("refund_date", dates.Valid("refund_date", in.RefundDate))
	if err := verrs.Err(); err != nil {
		return nil, err
	}
	settled := in.RefundAmount.Add(in.Deductions)
	if !settled.IsPositive() {
		return nil, apperrors.NewValidationError("refund_amount", "refund or deductions must be greater than zero")
	}

	var d *SecurityDeposit
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		var err error
		if d, err = repo.GetDeposit(ctx, id); err != nil {
			return err
		}
		if d.Status != DepositHeld {
			return apperrors.NewConflictError("security deposit", "deposit has already been settled")
		}
		if settled.GreaterThan(d.Amount) {
			return apperrors.NewValidationError("refund_amount", "refund plus deductions exceeds the deposit of "+currency.Format(d.Amount))
		}

		refundDate := in.RefundDate
		d.RefundAmount = decimal.NewNullDecimal(in.RefundAmount)
		d.RefundDate = &refundDate
		d.TotalDeductions = in.Deductions
		d.DeductionNotes = in.DeductionNotes
		d.Status = DepositStatusFor(d.Amount, in.RefundAmount, in.Deductions)
		d.UpdatedAt = s.now().Unix()
		return repo.UpdateDeposit(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DepositStatusFor derives the status of a settled deposit.
func DepositStatusFor(amount, refund, deductions decimal.Decimal) string {
	settled := refund.Add(deductions)
	switch {
	case refund.IsZero() && deductions.Equal(amount):
		return DepositForfeited
	case settled.Equal(amount) && refund.IsPositive():
		return DepositRefunded
	default:
		return DepositPartiallyRefunded
	}
}
