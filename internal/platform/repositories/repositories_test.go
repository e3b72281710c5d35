package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/database/dbtest"
	"propertyhub/internal/platform/models"
)

func seedOrg(t *testing.T, db *sql.DB, id, name, slug, status string) *models.Organization {
	t.Helper()
	now := time.Now().Unix()
	org := &models.Organization{
		ID:                 id,
		Name:               name,
		Slug:               slug,
		SubscriptionPlan:   models.PlanStarter,
		SubscriptionStatus: status,
		DBFilePath:         "/tmp/" + slug + ".db",
		WebhookSecret:      "secret",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	repo := NewOrganizationRepository(db)
	err := database.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return repo.CreateTx(context.Background(), tx, org)
	})
	require.NoError(t, err)
	return org
}

func TestOrganizationRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewGlobalDB(t)
	repo := NewOrganizationRepository(db)

	seedOrg(t, db, "org_1", "Sunrise Properties", "sunrise", models.SubscriptionActive)
	seedOrg(t, db, "org_2", "Harbour Homes", "harbour", models.SubscriptionSuspended)
	seedOrg(t, db, "org_3", "Sunset Realty", "sunset", models.SubscriptionTrial)

	t.Run("get by id", func(t *testing.T) {
		org, err := repo.GetByID(ctx, "org_1")
		require.NoError(t, err)
		require.NotNil(t, org)
		assert.Equal(t, "sunrise", org.Slug)

		missing, err := repo.GetByID(ctx, "org_missing")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		orgs, total, err := repo.List(ctx, OrganizationFilter{Search: "SUN"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, orgs, 2)
	})

	t.Run("filter by status", func(t *testing.T) {
		orgs, total, err := repo.List(ctx, OrganizationFilter{Status: models.SubscriptionSuspended})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "org_2", orgs[0].ID)
	})

	t.Run("accessible excludes suspended", func(t *testing.T) {
		orgs, err := repo.ListAccessible(ctx, time.Now().Unix())
		require.NoError(t, err)
		assert.Len(t, orgs, 2)
	})

	t.Run("update", func(t *testing.T) {
		org, err := repo.GetByID(ctx, "org_3")
		require.NoError(t, err)
		org.SubscriptionStatus = models.SubscriptionActive
		org.SubscriptionPlan = models.PlanProfessional
		require.NoError(t, repo.Update(ctx, org))

		got, err := repo.GetByID(ctx, "org_3")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, got.SubscriptionStatus)
		assert.Equal(t, models.PlanProfessional, got.SubscriptionPlan)
	})

	t.Run("stats", func(t *testing.T) {
		users := NewUserRepository(db)
		now := time.Now().Unix()
		require.NoError(t, users.Create(ctx, &models.User{ID: "usr_1", OrganizationID: "org_1", Email: "a@example.com", PasswordHash: "x", Role: models.RoleOwner, CreatedAt: now, UpdatedAt: now}))
		require.NoError(t, users.Create(ctx, &models.User{ID: "usr_root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleOwner, IsSuperAdmin: true, CreatedAt: now, UpdatedAt: now}))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalOrganizations)
		assert.Equal(t, 1, stats.ByStatus[models.SubscriptionSuspended])
		assert.Equal(t, 1, stats.TotalUsers)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewGlobalDB(t)
	seedOrg(t, db, "org_1", "Sunrise", "sunrise", models.SubscriptionActive)
	repo := NewUserRepository(db)

	now := time.Now().Unix()
	require.NoError(t, repo.Create(ctx, &models.User{
		ID: "usr_1", OrganizationID: "org_1", Email: "owner@example.com", PasswordHash: "hash",
		FullName: "Owner", Role: models.RoleOwner, CreatedAt: now, UpdatedAt: now,
	}))

	u, err := repo.GetByEmail(ctx, "Owner@Example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "usr_1", u.ID)
	assert.False(t, u.IsSuperAdmin)

	require.NoError(t, repo.UpdateRole(ctx, "usr_1", models.RoleAdmin))
	require.NoError(t, repo.UpdateLastLogin(ctx, "usr_1", now))

	u, err = repo.GetByID(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	require.NotNil(t, u.LastLoginAt)

	require.NoError(t, repo.SoftDelete(ctx, "usr_1"))
	members, err := repo.ListByOrg(ctx, "org_1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewGlobalDB(t)
	seedOrg(t, db, "org_1", "Sunrise", "sunrise", models.SubscriptionActive)
	repo := NewAPIKeyRepository(db)

	key := &models.APIKey{OrganizationID: "org_1", UserID: "usr_1", Name: "ci", KeyHash: "abc", KeyPrefix: "phk_live_abcdef"}
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, key.ID, got.ID)
	assert.True(t, got.Usable(time.Now().Unix()))

	ok, err := repo.Revoke(ctx, "org_other", key.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Revoke(ctx, "org_1", key.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, got.Usable(time.Now().Unix()))
}

func TestWebhookRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewTenantDB(t)
	repo := NewWebhookRepository(db)

	hook := &models.Webhook{URL: "https://example.com/hook", Events: []string{models.EventPaymentPaid}, Secret: "s"}
	require.NoError(t, repo.Create(ctx, hook))

	matched, err := repo.GetByEvent(ctx, models.EventPaymentPaid)
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	matched, err = repo.GetByEvent(ctx, models.EventTenantMoved)
	require.NoError(t, err)
	assert.Empty(t, matched)

	require.NoError(t, repo.RecordFailure(ctx, hook.ID, 100, "timeout"))
	got, err := repo.GetByID(ctx, hook.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "timeout", got.LastError)

	require.NoError(t, repo.RecordSuccess(ctx, hook.ID, 200))
	got, err = repo.GetByID(ctx, hook.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RetryCount)
	assert.Empty(t, got.LastError)

	require.NoError(t, repo.Delete(ctx, hook.ID))
	got, err = repo.GetByID(ctx, hook.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
