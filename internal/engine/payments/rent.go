package payments

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/dates"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

type SkippedRent struct {
	ScheduleID string `json:"schedule_id"`
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	DueDate    string `json:"due_date"`
	Reason     string `json:"reason"`
}

type GenerationResult struct {
	Month   int           `json:"month"`
	Year    int           `json:"year"`
	Created []*Payment    `json:"created"`
	Skipped []SkippedRent `json:"skipped"`
}

// GenerateMonthlyRent creates one rent payment per active schedule for the
// month. Tenants that already have a rent payment due that month are skipped,
// so repeated runs create nothing new. All inserts share one transaction.
func (s *Service) GenerateMonthlyRent(ctx context.Context, month, year int) (*GenerationResult, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}

	var result *GenerationResult
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		var err error
		result, err = s.planRent(ctx, repo, month, year)
		if err != nil {
			return err
		}
		for _, p := range result.Created {
			if err := repo.InsertPayment(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n := len(result.Created); n > 0 {
		if s.metrics != nil {
			s.metrics.RentGenerated.Add(float64(n))
		}
		s.publish(ctx, models.EventRentGenerated, result)
	}
	log.Info().
		Int("month", month).
		Int("year", year).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Monthly rent generated")
	return result, nil
}

// PreviewMonthlyRent reports what GenerateMonthlyRent would do without writing.
// Created payments carry no ID.
func (s *Service) PreviewMonthlyRent(ctx context.Context, month, year int) (*GenerationResult, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	result, err := s.planRent(ctx, s.repo, month, year)
	if err != nil {
		return nil, err
	}
	for _, p := range result.Created {
		p.ID = ""
	}
	return result, nil
}

func (s *Service) planRent(ctx context.Context, repo *Repository, month, year int) (*GenerationResult, error) {
	start, next := dates.MonthRange(month, year)
	monthStart := dates.Format(start)
	monthEnd := dates.Format(next.AddDate(0, 0, -1))
	nextStart := dates.Format(next)

	rentType, err := repo.GetPaymentTypeByName(ctx, TypeRent)
	if err != nil {
		return nil, err
	}
	schedules, err := repo.ActiveSchedulesForMonth(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{Month: month, Year: year, Created: []*Payment{}, Skipped: []SkippedRent{}}
	planned := map[string]bool{}
	label := dates.MonthLabel(month, year)
	ts := s.now().Unix()

	for _, rs := range schedules {
		dueDate := dates.Format(dates.DayInMonth(year, month, rs.DueDay))

		exists := planned[rs.TenantID]
		if !exists {
			exists, err = repo.RentPaymentExists(ctx, rs.TenantID, rentType.ID, monthStart, nextStart)
			if err != nil {
				return nil, err
			}
		}
		if exists {
			result.Skipped = append(result.Skipped, SkippedRent{
				ScheduleID: rs.ID,
				TenantID:   rs.TenantID,
				TenantName: rs.TenantName,
				DueDate:    dueDate,
				Reason:     "rent payment already exists for " + label,
			})
			continue
		}

		unitID := rs.UnitID
		planned[rs.TenantID] = true
		result.Created = append(result.Created, &Payment{
			ID:              "pay_" + uuid.New().String(),
			TenantID:        rs.TenantID,
			UnitID:          &unitID,
			PaymentTypeID:   rentType.ID,
			Amount:          rs.RentAmount,
			PaidAmount:      decimal.Zero,
			DueDate:         dueDate,
			Status:          StatusPending,
			Description:     "Monthly rent for " + label,
			IsRecurring:     true,
			RecurringPeriod: RecurringMonthly,
			CreatedAt:       ts,
			UpdatedAt:       ts,
			TenantName:      rs.TenantName,
			PaymentTypeName: rentType.DisplayName,
			PaymentTypeCode: rentType.Name,
		})
	}

	today := s.today()
	for _, p := range result.Created {
		p.EffectiveStatus = EffectiveStatus(p, today)
	}
	return result, nil
}
