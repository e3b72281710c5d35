package payments

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

const scheduleSelect = `
	SELECT s.id, s.tenant_id, s.unit_id, s.rent_amount, s.due_day, s.start_date, s.end_date,
	       s.late_fee_amount, s.late_fee_days, s.is_active, s.created_at, s.updated_at,
	       COALESCE(t.first_name || ' ' || t.last_name, '')
	FROM rent_schedules s
	LEFT JOIN tenants t ON t.id = s.tenant_id`

type ScheduleFilter struct {
	TenantID   string
	ActiveOnly bool
}

func (r *Repository) GetSchedule(ctx context.Context, id string) (*RentSchedule, error) {
	rs, err := scanSchedule(r.db.QueryRowContext(ctx, scheduleSelect+` WHERE s.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("rent schedule")
	}
	return rs, err
}

func (r *Repository) ListSchedules(ctx context.Context, f ScheduleFilter) ([]*RentSchedule, error) {
	var where []string
	var args []interface{}
	if f.TenantID != "" {
		where = append(where, "s.tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.ActiveOnly {
		where = append(where, "s.is_active = 1")
	}

	query := scheduleSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.start_date, s.created_at"
	return r.querySchedules(ctx, query, args...)
}

// ActiveSchedulesForMonth returns schedules whose active window overlaps [monthStart, monthEnd].
func (r *Repository) ActiveSchedulesForMonth(ctx context.Context, monthStart, monthEnd string) ([]*RentSchedule, error) {
	return r.querySchedules(ctx, scheduleSelect+`
		WHERE s.is_active = 1 AND s.start_date <= ? AND (s.end_date IS NULL OR s.end_date >= ?)
		ORDER BY s.created_at
	`, monthEnd, monthStart)
}

func (r *Repository) querySchedules(ctx context.Context, query string, args ...interface{}) ([]*RentSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*RentSchedule{}
	for rows.Next() {
		rs, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, rs)
	}
	return schedules, rows.Err()
}

func (r *Repository) InsertSchedule(ctx context.Context, rs *RentSchedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rent_schedules (
			id, tenant_id, unit_id, rent_amount, due_day, start_date, end_date,
			late_fee_amount, late_fee_days, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rs.ID, rs.TenantID, rs.UnitID, rs.RentAmount.String(), rs.DueDay, rs.StartDate, dates.Nullable(rs.EndDate),
		rs.LateFeeAmount.String(), rs.LateFeeDays, rs.IsActive, rs.CreatedAt, rs.UpdatedAt)
	return err
}

func (r *Repository) UpdateSchedule(ctx context.Context, rs *RentSchedule) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rent_schedules SET
			unit_id = ?, rent_amount = ?, due_day = ?, start_date = ?, end_date = ?,
			late_fee_amount = ?, late_fee_days = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, rs.UnitID, rs.RentAmount.String(), rs.DueDay, rs.StartDate, dates.Nullable(rs.EndDate),
		rs.LateFeeAmount.String(), rs.LateFeeDays, rs.IsActive, rs.UpdatedAt, rs.ID)
	return err
}

func (r *Repository) DeleteSchedule(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rent_schedules WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) SetLateFeePayment(ctx context.Context, paymentID, feeID string, ts int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payments SET late_fee_payment_id = ?, updated_at = ? WHERE id = ?`, feeID, ts, paymentID)
	return err
}

func scanSchedule(s database.Scanner) (*RentSchedule, error) {
	var rs RentSchedule
	var endDate sql.NullString
	err := s.Scan(&rs.ID, &rs.TenantID, &rs.UnitID, &rs.RentAmount, &rs.DueDay, &rs.StartDate, &endDate,
		&rs.LateFeeAmount, &rs.LateFeeDays, &rs.IsActive, &rs.CreatedAt, &rs.UpdatedAt, &rs.TenantName)
	if err != nil {
		return nil, err
	}
	rs.EndDate = dates.FromNull(endDate)
	return &rs, nil
}

type ScheduleInput struct {
	TenantID      string
	UnitID        *string
	RentAmount    decimal.Decimal
	DueDay        int
	StartDate     string
	EndDate       *string
	LateFeeAmount decimal.Decimal
	LateFeeDays   int
	IsActive      *bool
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*RentSchedule, error) {
	if err := validateSchedule(in); err != nil {
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
	rs := &RentSchedule{
		ID:            "rs_" + uuid.New().String(),
		TenantID:      in.TenantID,
		UnitID:        *unitID,
		RentAmount:    in.RentAmount,
		DueDay:        in.DueDay,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		LateFeeAmount: in.LateFeeAmount,
		LateFeeDays:   in.LateFeeDays,
		IsActive:      in.IsActive == nil || *in.IsActive,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if err := s.repo.InsertSchedule(ctx, rs); err != nil {
		return nil, err
	}
	return s.repo.GetSchedule(ctx, rs.ID)
}

func (s *Service) GetSchedule(ctx context.Context, id string) (*RentSchedule, error) {
	return s.repo.GetSchedule(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, f ScheduleFilter) ([]*RentSchedule, error) {
	return s.repo.ListSchedules(ctx, f)
}

// ScheduleUpdate holds optional changes; nil fields are left alone.
type ScheduleUpdate struct {
	UnitID        *string
	RentAmount    *decimal.Decimal
	DueDay        *int
	StartDate     *string
	EndDate       *string
	LateFeeAmount *decimal.Decimal
	LateFeeDays   *int
	IsActive      *bool
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, in ScheduleUpdate) (*RentSchedule, error) {
	rs, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.UnitID != nil && *in.UnitID != "" {
		rs.UnitID = *in.UnitID
	}
	if in.RentAmount != nil {
		rs.RentAmount = *in.RentAmount
	}
	if in.DueDay != nil {
		rs.DueDay = *in.DueDay
	}
	if in.StartDate != nil {
		rs.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		if *in.EndDate == "" {
			rs.EndDate = nil
		} else {
			rs.EndDate = in.EndDate
		}
	}
	if in.LateFeeAmount != nil {
		rs.LateFeeAmount = *in.LateFeeAmount
	}
	if in.LateFeeDays != nil {
		rs.LateFeeDays = *in.LateFeeDays
	}
	if in.IsActive != nil {
		rs.IsActive = *in.IsActive
	}

	if err := validateSchedule(ScheduleInput{
		TenantID:      rs.TenantID,
		RentAmount:    rs.RentAmount,
		DueDay:        rs.DueDay,
		StartDate:     rs.StartDate,
		EndDate:       rs.EndDate,
		LateFeeAmount: rs.LateFeeAmount,
		LateFeeDays:   rs.LateFeeDays,
	}); err != nil {
		return nil, err
	}

	rs.UpdatedAt = s.now().Unix()
	if err := s.repo.UpdateSchedule(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteSchedule(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("rent schedule")
	}
	return nil
}

type LateFeeResult struct {
	AsOf    string     `json:"as_of"`
	Created []*Payment `json:"created"`
}

// AssessLateFees charges each active schedule's late fee against rent payments
// still open more than late_fee_days after their due date. A rent payment is
// charged at most once.
func (s *Service) AssessLateFees(ctx context.Context, asOf string) (*LateFeeResult, error) {
	if asOf == "" {
		asOf = s.today()
	}
	if err := dates.Valid("as_of", asOf); err != nil {
		return nil, err
	}

	result := &LateFeeResult{AsOf: asOf, Created: []*Payment{}}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)

		rentType, err := repo.GetPaymentTypeByName(ctx, TypeRent)
		if err != nil {
			return err
		}
		feeType, err := repo.GetPaymentTypeByName(ctx, TypeLateFee)
		if err != nil {
			return err
		}
		schedules, err := repo.ListSchedules(ctx, ScheduleFilter{ActiveOnly: true})
		if err != nil {
			return err
		}

		charged := map[string]bool{}
		ts := s.now().Unix()
		for _, rs := range schedules {
			if !rs.LateFeeAmount.IsPositive() {
				continue
			}
			candidates, err := repo.LateFeeCandidates(ctx, rs.TenantID, rentType.ID)
			if err != nil {
				return err
			}
			for _, p := range candidates {
				if charged[p.ID] {
					continue
				}
				deadline, err := dates.AddDays(p.DueDate, rs.LateFeeDays)
				if err != nil {
					return err
				}
				if deadline >= asOf {
					continue
				}

				due, _ := dates.Parse(p.DueDate)
				fee := &Payment{
					ID:            "pay_" + uuid.New().String(),
					TenantID:      p.TenantID,
					UnitID:        p.UnitID,
					PaymentTypeID: feeType.ID,
					Amount:        rs.LateFeeAmount,
					PaidAmount:    decimal.Zero,
					DueDate:       asOf,
					Status:        StatusPending,
					Description:   fmt.Sprintf("Late fee for %s", dates.MonthLabel(int(due.Month()), due.Year())),
					CreatedAt:     ts,
					UpdatedAt:     ts,
				}
				if err := repo.InsertPayment(ctx, fee); err != nil {
					return err
				}
				if err := repo.SetLateFeePayment(ctx, p.ID, fee.ID, ts); err != nil {
					return err
				}
				charged[p.ID] = true
				fee.EffectiveStatus = fee.Status
				result.Created = append(result.Created, fee)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n := len(result.Created); n > 0 {
		if s.metrics != nil {
			s.metrics.LateFeesAssessed.Add(float64(n))
		}
		log.Info().Str("as_of", asOf).Int("count", n).Msg("Late fees assessed")
		s.publish(ctx, models.EventLateFeesAssessed, result)
	}
	return result, nil
}
