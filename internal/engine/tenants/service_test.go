package tenants

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database/dbtest"
	"propertyhub/internal/platform/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func newTestService(t *testing.T) (*Service, *sql.DB, *recordingPublisher) {
	t.Helper()
	db := dbtest.NewTenantDB(t)
	_, err := db.Exec(`INSERT INTO properties (id, organization_id, name, address, city, state, created_at, updated_at)
		VALUES ('prop_1', 'org_test', 'Vista Komanwel', '1 Jalan Bukit Jalil', 'Kuala Lumpur', 'Kuala Lumpur', 0, 0)`)
	require.NoError(t, err)
	for _, id := range []string{"unit_a", "unit_b", "unit_c"} {
		_, err := db.Exec(`INSERT INTO units (id, property_id, unit_number, status, created_at, updated_at)
			VALUES (?, 'prop_1', ?, 'vacant', 0, 0)`, id, id)
		require.NoError(t, err)
	}

	pub := &recordingPublisher{}
	svc := NewService(db, "org_test", pub).WithClock(func() time.Time {
		return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	})
	return svc, db, pub
}

func unitStatus(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM units WHERE id = ?`, id).Scan(&status))
	return status
}

func strPtr(s string) *string { return &s }

func activeTenant(unitID string) TenantInput {
	return TenantInput{
		UnitID:     strPtr(unitID),
		FirstName:  "Nur",
		LastName:   "Aina",
		Email:      "Nur.Aina@example.com",
		Phone:      "+60 12-345 6789",
		ICNumber:   "900101-14-5678",
		RentAmount: decimal.NewFromInt(1500),
		Status:     StatusActive,
	}
}

func TestCreateAndDeleteActiveTenantSyncsUnit(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)
	assert.Equal(t, "occupied", unitStatus(t, db, "unit_a"))
	assert.Equal(t, "nur.aina@example.com", tenant.Email)
	assert.Equal(t, "012-345 6789", tenant.Phone)
	assert.Equal(t, "900101-14-5678", tenant.ICNumber)
	assert.Equal(t, "Vista Komanwel", tenant.PropertyName)

	leases, err := svc.ListLeases(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, LeaseActive, leases[0].Status)
	assert.Equal(t, "2024-03-10", leases[0].StartDate)

	require.NoError(t, svc.Delete(ctx, tenant.ID))
	assert.Equal(t, "vacant", unitStatus(t, db, "unit_a"))
	_, err = svc.Get(ctx, tenant.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM lease_history`).Scan(&n))
	assert.Zero(t, n)
}

func TestCreateTenant_Validation(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	in := activeTenant("unit_a")
	in.FirstName = ""
	in.Email = "not-an-email"
	in.ICNumber = "12345"
	in.Phone = "12345"
	in.LeaseStartDate = strPtr("2024-03-01")
	in.LeaseEndDate = strPtr("2024-02-01")
	in.RentAmount = decimal.NewFromInt(-1)
	in.Status = "evicted"

	_, err := svc.Create(ctx, in)
	verrs, ok := apperrors.IsValidationErrors(err)
	require.True(t, ok)
	fields := verrs.Fields()
	for _, f := range []string{"first_name", "email", "ic_number", "phone", "lease_end_date", "rent_amount", "status"} {
		assert.Contains(t, fields, f)
	}
	assert.Equal(t, "IC number must be 12 digits", fields["ic_number"])
	assert.Equal(t, "vacant", unitStatus(t, db, "unit_a"))
}

func TestCreateTenant_UnitAlreadyTaken(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, activeTenant("unit_a"))
	_, ok := apperrors.IsConflictError(err)
	require.True(t, ok)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tenants`).Scan(&n))
	assert.Equal(t, 1, n, "the rejected tenant was rolled back")

	_, err = svc.Create(ctx, activeTenant("unit_missing"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPendingTenantDoesNotOccupy(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	in := activeTenant("unit_a")
	in.Status = StatusPending
	tenant, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "vacant", unitStatus(t, db, "unit_a"))

	active := StatusActive
	_, err = svc.Update(ctx, tenant.ID, TenantUpdate{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, "occupied", unitStatus(t, db, "unit_a"))
}

func TestUpdateTenantTransitions(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)

	t.Run("changing unit swaps occupancy", func(t *testing.T) {
		_, err := svc.Update(ctx, tenant.ID, TenantUpdate{UnitID: strPtr("unit_b")})
		require.NoError(t, err)
		assert.Equal(t, "vacant", unitStatus(t, db, "unit_a"))
		assert.Equal(t, "occupied", unitStatus(t, db, "unit_b"))
	})

	t.Run("moving out vacates the previous unit", func(t *testing.T) {
		movedOut := StatusMovedOut
		updated, err := svc.Update(ctx, tenant.ID, TenantUpdate{Status: &movedOut})
		require.NoError(t, err)
		assert.Equal(t, StatusMovedOut, updated.Status)
		assert.Equal(t, "vacant", unitStatus(t, db, "unit_b"))

		leases, err := svc.ListLeases(ctx, tenant.ID)
		require.NoError(t, err)
		require.Len(t, leases, 2)
		for _, l := range leases {
			assert.Equal(t, LeaseEnded, l.Status)
			require.NotNil(t, l.EndDate)
		}
	})

	t.Run("reactivating into a taken unit is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, activeTenant("unit_b"))
		require.NoError(t, err)

		active := StatusActive
		_, err = svc.Update(ctx, tenant.ID, TenantUpdate{Status: &active})
		_, ok := apperrors.IsConflictError(err)
		assert.True(t, ok)

		got, err := svc.Get(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusMovedOut, got.Status)
	})
}

func TestMoveTenant(t *testing.T) {
	svc, db, pub := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO rent_schedules (id, tenant_id, unit_id, rent_amount, due_day, start_date, created_at, updated_at)
		VALUES ('rs_1', ?, 'unit_a', '1500', 1, '2024-01-01', 0, 0)`, tenant.ID)
	require.NoError(t, err)

	moved, err := svc.Move(ctx, tenant.ID, MoveInput{NewUnitID: "unit_c", Date: "2024-03-15"})
	require.NoError(t, err)
	require.NotNil(t, moved.UnitID)
	assert.Equal(t, "unit_c", *moved.UnitID)
	require.NotNil(t, moved.MoveInDate)
	assert.Equal(t, "2024-03-15", *moved.MoveInDate)
	assert.Equal(t, "vacant", unitStatus(t, db, "unit_a"))
	assert.Equal(t, "occupied", unitStatus(t, db, "unit_c"))

	var scheduleUnit string
	require.NoError(t, db.QueryRow(`SELECT unit_id FROM rent_schedules WHERE id = 'rs_1'`).Scan(&scheduleUnit))
	assert.Equal(t, "unit_c", scheduleUnit)

	leases, err := svc.ListLeases(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, leases, 2)
	assert.Equal(t, LeaseEnded, leases[0].Status)
	assert.Equal(t, "2024-03-15", *leases[0].EndDate)
	assert.Equal(t, LeaseActive, leases[1].Status)
	assert.Equal(t, "unit_c", leases[1].UnitID)

	assert.Equal(t, []string{models.EventTenantMoved}, pub.events)

	t.Run("same unit", func(t *testing.T) {
		_, err := svc.Move(ctx, tenant.ID, MoveInput{NewUnitID: "unit_c"})
		verr, ok := apperrors.IsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "unit_id", verr.Field)
	})

	t.Run("into an occupied unit", func(t *testing.T) {
		_, err := svc.Create(ctx, activeTenant("unit_a"))
		require.NoError(t, err)
		_, err = svc.Move(ctx, tenant.ID, MoveInput{NewUnitID: "unit_a"})
		_, ok := apperrors.IsConflictError(err)
		assert.True(t, ok)
		assert.Equal(t, "occupied", unitStatus(t, db, "unit_c"), "rolled back")
	})

	t.Run("inactive tenant", func(t *testing.T) {
		in := activeTenant("unit_b")
		in.Status = StatusInactive
		other, err := svc.Create(ctx, in)
		require.NoError(t, err)
		_, err = svc.Move(ctx, other.ID, MoveInput{NewUnitID: "unit_b"})
		_, ok := apperrors.IsConflictError(err)
		assert.True(t, ok)
	})
}

func TestDeleteTenantWithPayments(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO payments (id, tenant_id, payment_type_id, amount, due_date, created_at, updated_at)
		VALUES ('pay_1', ?, 'ptype_rent', '1500', '2024-03-01', 0, 0)`, tenant.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, tenant.ID)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, "occupied", unitStatus(t, db, "unit_a"))
}

func TestListTenants(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, activeTenant("unit_a"))
	require.NoError(t, err)
	in := activeTenant("unit_b")
	in.FirstName, in.LastName, in.Status = "Rajesh", "Kumar", StatusPending
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	list, err := svc.List(ctx, ListFilter{Search: "raj"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rajesh Kumar", list[0].FullName())

	list, err = svc.List(ctx, ListFilter{Status: StatusActive, PropertyID: "prop_1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
