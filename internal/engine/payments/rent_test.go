package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/models"
)

func createSchedule(t *testing.T, svc *Service, in ScheduleInput) *RentSchedule {
	t.Helper()
	rs, err := svc.CreateSchedule(context.Background(), in)
	require.NoError(t, err)
	return rs
}

func TestGenerateMonthlyRent_Idempotent(t *testing.T) {
	svc, db, pub := newTestService(t)
	tenantID, unitID := seedTenant(t, db, "1")
	ctx := context.Background()

	createSchedule(t, svc, ScheduleInput{
		TenantID:   tenantID,
		RentAmount: decimal.NewFromInt(1500),
		DueDay:     1,
		StartDate:  "2024-01-01",
	})

	first, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	require.Len(t, first.Created, 1)
	assert.Empty(t, first.Skipped)

	p := first.Created[0]
	assert.Equal(t, "2024-02-01", p.DueDate)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "Monthly rent for February 2024", p.Description)
	assert.True(t, p.IsRecurring)
	assert.Equal(t, RecurringMonthly, p.RecurringPeriod)
	require.NotNil(t, p.UnitID)
	assert.Equal(t, unitID, *p.UnitID)

	second, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, tenantID, second.Skipped[0].TenantID)

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM payments WHERE tenant_id = ?`, tenantID))
	var due, amount string
	require.NoError(t, db.QueryRow(`SELECT due_date, amount FROM payments`).Scan(&due, &amount))
	assert.Equal(t, "2024-02-01", due)
	assert.Equal(t, "1500", amount)

	assert.Equal(t, []string{models.EventRentGenerated}, pub.Events())
}

func TestGenerateMonthlyRent_ScheduleWindowAndClamp(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	t1, _ := seedTenant(t, db, "1")
	t2, _ := seedTenant(t, db, "2")
	t3, _ := seedTenant(t, db, "3")
	t4, _ := seedTenant(t, db, "4")

	ended := "2024-01-31"
	inactive := false
	createSchedule(t, svc, ScheduleInput{TenantID: t1, RentAmount: decimal.NewFromInt(900), DueDay: 31, StartDate: "2023-06-01"})
	createSchedule(t, svc, ScheduleInput{TenantID: t2, RentAmount: decimal.NewFromInt(900), DueDay: 5, StartDate: "2023-06-01", EndDate: &ended})
	createSchedule(t, svc, ScheduleInput{TenantID: t3, RentAmount: decimal.NewFromInt(900), DueDay: 5, StartDate: "2024-03-01"})
	createSchedule(t, svc, ScheduleInput{TenantID: t4, RentAmount: decimal.NewFromInt(900), DueDay: 5, StartDate: "2023-06-01", IsActive: &inactive})

	res, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, t1, res.Created[0].TenantID)
	assert.Equal(t, "2024-02-29", res.Created[0].DueDate)
}

func TestGenerateMonthlyRent_ExistingManualRentIsSkipped(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	createSchedule(t, svc, ScheduleInput{TenantID: tenantID, RentAmount: decimal.NewFromInt(1500), DueDay: 1, StartDate: "2024-01-01"})
	createRent(t, svc, tenantID, "1500", "2024-02-15")

	res, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Skipped, 1)
}

func TestGenerateMonthlyRent_CancelledRentIsReissued(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	createSchedule(t, svc, ScheduleInput{TenantID: tenantID, RentAmount: decimal.NewFromInt(1500), DueDay: 1, StartDate: "2024-01-01"})
	first, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	_, err = svc.CancelPayment(ctx, first.Created[0].ID)
	require.NoError(t, err)

	again, err := svc.GenerateMonthlyRent(ctx, 2, 2024)
	require.NoError(t, err)
	require.Len(t, again.Created, 1)
	assert.NotEqual(t, first.Created[0].ID, again.Created[0].ID)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM payments WHERE tenant_id = ? AND status = 'pending'`, tenantID))
}

func TestPreviewMonthlyRent(t *testing.T) {
	svc, db, pub := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	ctx := context.Background()

	createSchedule(t, svc, ScheduleInput{TenantID: tenantID, RentAmount: decimal.NewFromInt(1500), DueDay: 1, StartDate: "2024-01-01"})

	res, err := svc.PreviewMonthlyRent(ctx, 4, 2024)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Empty(t, res.Created[0].ID)
	assert.Equal(t, "2024-04-01", res.Created[0].DueDate)
	assert.Equal(t, StatusPending, res.Created[0].EffectiveStatus)

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM payments`))
	assert.Empty(t, pub.Events())
}

func TestGenerateMonthlyRent_InvalidPeriod(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		month int
		year  int
		field string
	}{
		{"month zero", 0, 2024, "month"},
		{"month thirteen", 13, 2024, "month"},
		{"year too early", 1, 1999, "year"},
		{"year too late", 1, 2101, "year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateMonthlyRent(ctx, tt.month, tt.year)
			verrs, ok := apperrors.IsValidationErrors(err)
			require.True(t, ok)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}
