package payments

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"propertyhub/internal/platform/database/dbtest"
	"propertyhub/internal/platform/metrics"
)

var fixedNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newTestService(t *testing.T) (*Service, *sql.DB, *recordingPublisher) {
	t.Helper()
	db := dbtest.NewTenantDB(t)
	pub := &recordingPublisher{}
	svc := NewService(db, pub, metrics.New()).WithClock(func() time.Time { return fixedNow })
	return svc, db, pub
}

// seedTenant inserts a property, a unit and an active tenant living in it.
func seedTenant(t *testing.T, db *sql.DB, suffix string) (tenantID, unitID string) {
	t.Helper()
	ts := fixedNow.Unix()
	propID := "prop_" + suffix
	unitID = "unit_" + suffix
	tenantID = "tnt_" + suffix

	_, err := db.Exec(`INSERT INTO properties (id, organization_id, name, address, city, state, created_at, updated_at)
		VALUES (?, 'org_test', 'Residensi', '1 Jalan Ampang', 'Kuala Lumpur', 'Kuala Lumpur', ?, ?)`, propID, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO units (id, property_id, unit_number, rent_amount, status, created_at, updated_at)
		VALUES (?, ?, 'A-1', '1500', 'occupied', ?, ?)`, unitID, propID, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tenants (id, organization_id, unit_id, first_name, last_name, rent_amount, status, created_at, updated_at)
		VALUES (?, 'org_test', ?, 'Aisyah', 'Rahman', '1500', 'active', ?, ?)`, tenantID, unitID, ts, ts)
	require.NoError(t, err)
	return tenantID, unitID
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
