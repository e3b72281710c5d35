package middleware

import (
	"context"
	"net/http"
	"time"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

// TenantMiddleware resolves the caller's organization and opens its database.
// Suspended and canceled organizations, and trials past their end date, are refused.
type TenantMiddleware struct {
	orgRepo *repositories.OrganizationRepository
	dbPool  *database.TenantDBPool
	now     func() time.Time
}

func NewTenantMiddleware(orgRepo *repositories.OrganizationRepository, dbPool *database.TenantDBPool) *TenantMiddleware {
	return &TenantMiddleware{
		orgRepo: orgRepo,
		dbPool:  dbPool,
		now:     time.Now,
	}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := apiContext.ClaimsFrom(r.Context())
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}
		if claims.OrganizationID == "" {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Token is not bound to an organization", nil)
			return
		}

		org, err := m.orgRepo.GetByID(r.Context(), claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}
		if !org.IsAccessible(m.now().Unix()) {
			msg := "Organization is " + org.SubscriptionStatus
			if org.SubscriptionStatus == models.SubscriptionTrial {
				msg = "Organization trial has ended"
			}
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, msg, nil)
			return
		}

		db, err := m.dbPool.Get(org.ID, org.DBFilePath)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &database.TenantContext{
			OrgID:   org.ID,
			OrgSlug: org.Slug,
			DB:      db,
		})

		next(w, r.WithContext(ctx))
	}
}
