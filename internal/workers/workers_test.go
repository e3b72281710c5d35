package workers

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database/dbtest"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/models"
)

type fakeOrgs struct {
	orgs []*models.Organization
	dbs  map[string]*sql.DB
}

func (f *fakeOrgs) ListAccessible(context.Context) ([]*models.Organization, error) {
	return f.orgs, nil
}

func (f *fakeOrgs) TenantDB(org *models.Organization) (*sql.DB, error) {
	db, ok := f.dbs[org.ID]
	if !ok {
		return nil, errors.New("database file missing")
	}
	return db, nil
}

func seedSchedule(t *testing.T, db *sql.DB) {
	t.Helper()
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	_, err := db.Exec(`INSERT INTO properties (id, organization_id, name, address, city, state, created_at, updated_at)
		VALUES ('prop_1', 'org_ok', 'Residensi', '1 Jalan Ampang', 'Kuala Lumpur', 'Kuala Lumpur', ?, ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO units (id, property_id, unit_number, rent_amount, status, created_at, updated_at)
		VALUES ('unit_1', 'prop_1', 'A-1', '1500', 'occupied', ?, ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tenants (id, organization_id, unit_id, first_name, last_name, rent_amount, status, created_at, updated_at)
		VALUES ('tnt_1', 'org_ok', 'unit_1', 'Aisyah', 'Rahman', '1500', 'active', ?, ?)`, ts, ts)
	require.NoError(t, err)

	unitID := "unit_1"
	_, err = payments.NewService(db, nil, nil).CreateSchedule(context.Background(), payments.ScheduleInput{
		TenantID:      "tnt_1",
		UnitID:        &unitID,
		RentAmount:    decimal.NewFromInt(1500),
		DueDay:        5,
		StartDate:     "2024-01-01",
		LateFeeAmount: decimal.NewFromInt(50),
		LateFeeDays:   3,
	})
	require.NoError(t, err)
}

func newTestRunner(t *testing.T) (*Runner, *sql.DB, *time.Time) {
	t.Helper()
	db := dbtest.NewTenantDB(t)
	seedSchedule(t, db)

	orgs := &fakeOrgs{
		orgs: []*models.Organization{
			{ID: "org_ok", Slug: "ok"},
			{ID: "org_broken", Slug: "broken"},
		},
		dbs: map[string]*sql.DB{"org_ok": db},
	}
	now := time.Date(2024, time.March, 1, 0, 5, 0, 0, time.UTC)
	r := NewRunner(orgs, nil, metrics.New(), time.UTC).WithClock(func() time.Time { return now })
	return r, db, &now
}

func TestGenerateRent(t *testing.T) {
	r, db, _ := newTestRunner(t)
	ctx := context.Background()

	summary, err := r.GenerateRent(ctx)
	require.NoError(t, err)
	assert.Equal(t, JobRentGeneration, summary.Job)
	assert.Equal(t, 2, summary.Organizations)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)

	var due string
	require.NoError(t, db.QueryRow(`SELECT due_date FROM payments`).Scan(&due))
	assert.Equal(t, "2024-03-05", due)

	again, err := r.GenerateRent(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
}

func TestAssessLateFeesAfterGraceDays(t *testing.T) {
	r, db, now := newTestRunner(t)
	ctx := context.Background()

	_, err := r.GenerateRent(ctx)
	require.NoError(t, err)

	*now = time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	summary, err := r.AssessLateFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Created)

	*now = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	summary, err = r.AssessLateFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r, _, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.GenerateRent(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Organizations)
}

func TestSchedule(t *testing.T) {
	r, _, _ := newTestRunner(t)
	c := cron.New()

	err := r.Schedule(context.Background(), c, config.SchedulerConfig{
		RentGenerationSchedule: "0 0 1 * *",
		LateFeeSchedule:        "30 1 * * *",
	})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)

	err = r.Schedule(context.Background(), cron.New(), config.SchedulerConfig{
		RentGenerationSchedule: "not a schedule",
		LateFeeSchedule:        "30 1 * * *",
	})
	assert.Error(t, err)
}
