// Package reports builds the organization dashboard and spreadsheet exports
// on top of the properties, tenants and payments engines.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/engine/properties"
	"propertyhub/internal/pkg/dates"
)

const upcomingWindowDays = 7

type PaymentSource interface {
	ListPayments(ctx context.Context, f payments.ListFilter) ([]*payments.Payment, error)
	ListPaymentTypes(ctx context.Context) ([]*payments.PaymentType, error)
}

type PropertySource interface {
	CountProperties(ctx context.Context) (int, error)
	OccupancyStats(ctx context.Context, propertyID string) (*properties.OccupancyStats, error)
}

type TenantSource interface {
	CountActive(ctx context.Context) (int, error)
}

type Service struct {
	payments   PaymentSource
	properties PropertySource
	tenants    TenantSource
}

func NewService(p PaymentSource, props PropertySource, t TenantSource) *Service {
	return &Service{payments: p, properties: props, tenants: t}
}

type Dashboard struct {
	Today            string                     `json:"today"`
	PropertyCount    int                        `json:"property_count"`
	Occupancy        *properties.OccupancyStats `json:"occupancy"`
	ActiveTenants    int                        `json:"active_tenants"`
	CurrentMonth     *payments.Analytics        `json:"current_month"`
	UpcomingPayments int                        `json:"upcoming_payments"`
	UpcomingAmount   decimal.Decimal            `json:"upcoming_amount"`
	OverduePayments  int                        `json:"overdue_payments"`
	OverdueAmount    decimal.Decimal            `json:"overdue_amount"`
}

// Dashboard summarises the organization as of today (YYYY-MM-DD). Upcoming
// covers unpaid payments due in the next seven days, today included.
func (s *Service) Dashboard(ctx context.Context, today string) (*Dashboard, error) {
	day, err := dates.Parse(today)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Today: today, UpcomingAmount: decimal.Zero, OverdueAmount: decimal.Zero}

	if d.PropertyCount, err = s.properties.CountProperties(ctx); err != nil {
		return nil, err
	}
	if d.Occupancy, err = s.properties.OccupancyStats(ctx, ""); err != nil {
		return nil, err
	}
	if d.ActiveTenants, err = s.tenants.CountActive(ctx); err != nil {
		return nil, err
	}

	start, next := dates.MonthRange(int(day.Month()), day.Year())
	month, err := s.payments.ListPayments(ctx, payments.ListFilter{
		DueFrom: dates.Format(start),
		DueTo:   dates.Format(next.AddDate(0, 0, -1)),
	})
	if err != nil {
		return nil, err
	}
	types, err := s.payments.ListPaymentTypes(ctx)
	if err != nil {
		return nil, err
	}
	d.CurrentMonth = payments.ComputeAnalytics(month, types, today)

	upcoming, err := s.payments.ListPayments(ctx, payments.ListFilter{
		DueFrom: today,
		DueTo:   dates.Format(day.AddDate(0, 0, upcomingWindowDays)),
	})
	if err != nil {
		return nil, err
	}
	for _, p := range upcoming {
		if p.Status == payments.StatusPending || p.Status == payments.StatusPartial {
			d.UpcomingPayments++
			d.UpcomingAmount = d.UpcomingAmount.Add(p.Outstanding())
		}
	}

	overdue, err := s.payments.ListPayments(ctx, payments.ListFilter{Status: payments.StatusOverdue})
	if err != nil {
		return nil, err
	}
	d.OverduePayments = len(overdue)
	for _, p := range overdue {
		d.OverdueAmount = d.OverdueAmount.Add(p.Outstanding())
	}

	return d, nil
}

// CurrentDay is today's date in loc, formatted for Dashboard.
func CurrentDay(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return dates.Format(dates.Today(now))
}
