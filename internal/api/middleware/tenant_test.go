package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/repositories"
)

const orgByIDQuery = `SELECT (.+) FROM organizations WHERE id = \?`

var orgColumns = []string{"id", "name", "slug", "subscription_plan", "subscription_status", "trial_ends_at",
	"db_file_path", "webhook_secret", "created_at", "updated_at"}

func newTenantMiddleware(t *testing.T) (*TenantMiddleware, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pool := database.NewTenantDBPool(config.TenantDBConfig{BasePath: t.TempDir(), MaxConnectionsPerOrg: 1})
	t.Cleanup(pool.CloseAll)

	m := NewTenantMiddleware(repositories.NewOrganizationRepository(db), pool)
	m.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return m, mock
}

func requestWithClaims(orgID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{UserID: "usr_1", OrganizationID: orgID})
	return req.WithContext(ctx)
}

func TestTenantMiddleware(t *testing.T) {
	t.Run("active organization", func(t *testing.T) {
		m, mock := newTenantMiddleware(t)
		mock.ExpectQuery(orgByIDQuery).
			WithArgs("org_123").
			WillReturnRows(sqlmock.NewRows(orgColumns).
				AddRow("org_123", "Test Org", "test-org", "starter", "active", nil, ":memory:", "secret", 1, 1))

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := apiContext.TenantFrom(r.Context())
			require.True(t, ok)
			assert.Equal(t, "org_123", tenant.OrgID)
			assert.Equal(t, "test-org", tenant.OrgSlug)
			assert.NotNil(t, tenant.DB)
			w.WriteHeader(http.StatusOK)
		}).ServeHTTP(rr, requestWithClaims("org_123"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown organization", func(t *testing.T) {
		m, mock := newTenantMiddleware(t)
		mock.ExpectQuery(orgByIDQuery).WithArgs("org_999").WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, requestWithClaims("org_999"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("suspended organization", func(t *testing.T) {
		m, mock := newTenantMiddleware(t)
		mock.ExpectQuery(orgByIDQuery).
			WithArgs("org_123").
			WillReturnRows(sqlmock.NewRows(orgColumns).
				AddRow("org_123", "Test Org", "test-org", "starter", "suspended", nil, ":memory:", "secret", 1, 1))

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, requestWithClaims("org_123"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "suspended")
	})

	t.Run("expired trial", func(t *testing.T) {
		m, mock := newTenantMiddleware(t)
		mock.ExpectQuery(orgByIDQuery).
			WithArgs("org_123").
			WillReturnRows(sqlmock.NewRows(orgColumns).
				AddRow("org_123", "Test Org", "test-org", "starter", "trial", int64(1_600_000_000), ":memory:", "secret", 1, 1))

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, requestWithClaims("org_123"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "trial")
	})

	t.Run("platform token without organization", func(t *testing.T) {
		m, mock := newTenantMiddleware(t)

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, requestWithClaims(""))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing claims", func(t *testing.T) {
		m, _ := newTenantMiddleware(t)

		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
