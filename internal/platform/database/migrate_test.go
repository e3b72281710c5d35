package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/database/dbtest"
)

func TestMigrate_Tenant(t *testing.T) {
	db := dbtest.NewTenantDB(t)

	var types int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM payment_types").Scan(&types))
	assert.Equal(t, 6, types)

	var methods int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM payment_methods").Scan(&methods))
	assert.Equal(t, 5, methods)

	t.Run("second run is a no-op", func(t *testing.T) {
		n, err := database.Migrate(context.Background(), db, database.TargetTenant)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestMigrate_Global(t *testing.T) {
	db := dbtest.NewGlobalDB(t)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM organizations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestMigrate_UnknownTarget(t *testing.T) {
	db := dbtest.NewGlobalDB(t)

	_, err := database.Migrate(context.Background(), db, "billing")
	assert.Error(t, err)
}
