package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/api/handlers"
	"propertyhub/internal/api/middleware"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/pkg/logger"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/models"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	OrgHandler        *handlers.OrgHandler
	UserHandler       *handlers.UserHandler
	PropertyHandler   *handlers.PropertyHandler
	TenantHandler     *handlers.TenantHandler
	PaymentHandler    *handlers.PaymentHandler
	RentHandler       *handlers.RentHandler
	ReportHandler     *handlers.ReportHandler
	LookupHandler     *handlers.LookupHandler
	WebhookHandler    *handlers.WebhookHandler
	APIKeyHandler     *handlers.APIKeyHandler
	AuditHandler      *handlers.AuditHandler
	SuperAdminHandler *handlers.SuperAdminHandler
	HealthHandler     *handlers.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	TenantMiddleware  *middleware.TenantMiddleware
	RateLimiter       *middleware.RateLimiter
	Metrics           *metrics.Metrics
}

type middlewareFunc = func(http.HandlerFunc) http.HandlerFunc

// Role sets used by the route table.
var (
	anyMember = []string{models.RoleOwner, models.RoleAdmin, models.RoleManager, models.RoleStaff, models.RoleAPI}
	staff     = []string{models.RoleOwner, models.RoleAdmin, models.RoleManager, models.RoleStaff}
	managers  = []string{models.RoleOwner, models.RoleAdmin, models.RoleManager}
	admins    = []string{models.RoleOwner, models.RoleAdmin}
)

type routes struct {
	router *httprouter.Router
	deps   *Dependencies
}

// NewRouter builds the full HTTP surface wrapped in the request logger.
func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusMethodNotAllowed, errors.ErrCodeInvalidInput, "Method not allowed", nil)
	})
	rt := &routes{router: router, deps: deps}

	router.GET("/health", wrap(deps.HealthHandler.Check))
	if deps.Metrics != nil {
		router.Handler(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Authentication
	rt.public(http.MethodPost, "/api/v1/auth/login", deps.AuthHandler.Login)
	rt.public(http.MethodPost, "/api/v1/auth/refresh", deps.AuthHandler.Refresh)
	rt.public(http.MethodPost, "/api/v1/auth/logout", deps.AuthHandler.Logout)
	rt.authenticated(http.MethodGet, "/api/v1/auth/me", deps.AuthHandler.Me)

	// Organizations
	rt.public(http.MethodPost, "/api/v1/organizations", deps.OrgHandler.Create)
	rt.tenant(http.MethodGet, "/api/v1/organizations/current", deps.OrgHandler.GetCurrent, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/organizations/current", deps.OrgHandler.Update, admins)

	// Members
	u := deps.UserHandler
	rt.tenant(http.MethodGet, "/api/v1/users", u.List, admins)
	rt.tenant(http.MethodPost, "/api/v1/users", u.Create, admins)
	rt.tenant(http.MethodGet, "/api/v1/users/:id", u.Get, admins)
	rt.tenant(http.MethodPatch, "/api/v1/users/:id", u.UpdateRole, admins)
	rt.tenant(http.MethodDelete, "/api/v1/users/:id", u.Delete, admins)

	// Properties and units
	p := deps.PropertyHandler
	rt.tenant(http.MethodGet, "/api/v1/properties", p.List, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/properties", p.Create, managers)
	rt.tenant(http.MethodGet, "/api/v1/properties/:id", p.Get, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/properties/:id", p.Update, managers)
	rt.tenant(http.MethodDelete, "/api/v1/properties/:id", p.Delete, admins)
	rt.tenant(http.MethodGet, "/api/v1/properties/:id/units", p.ListUnits, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/units", p.ListUnits, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/units", p.CreateUnit, managers)
	rt.tenant(http.MethodGet, "/api/v1/units/:id", p.GetUnit, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/units/:id", p.UpdateUnit, managers)
	rt.tenant(http.MethodDelete, "/api/v1/units/:id", p.DeleteUnit, admins)
	rt.tenant(http.MethodGet, "/api/v1/occupancy", p.Occupancy, anyMember)

	// Tenants
	t := deps.TenantHandler
	rt.tenant(http.MethodGet, "/api/v1/tenants", t.List, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/tenants", t.Create, staff)
	rt.tenant(http.MethodGet, "/api/v1/tenants/:id", t.Get, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/tenants/:id", t.Update, staff)
	rt.tenant(http.MethodDelete, "/api/v1/tenants/:id", t.Delete, admins)
	rt.tenant(http.MethodPost, "/api/v1/tenants/:id/move", t.Move, managers)
	rt.tenant(http.MethodGet, "/api/v1/tenants/:id/leases", t.Leases, anyMember)

	// Payments
	pay := deps.PaymentHandler
	rt.tenant(http.MethodGet, "/api/v1/payments", pay.List, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/payments", pay.Create, staff)
	rt.tenant(http.MethodGet, "/api/v1/payments/:id", pay.Get, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/payments/:id", pay.Update, staff)
	rt.tenant(http.MethodDelete, "/api/v1/payments/:id", pay.Delete, admins)
	rt.tenant(http.MethodPost, "/api/v1/payments/:id/cancel", pay.Cancel, managers)
	rt.tenant(http.MethodPost, "/api/v1/payments/:id/transactions", pay.RecordTransaction, staff)
	rt.tenant(http.MethodGet, "/api/v1/payments/:id/transactions", pay.ListTransactions, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/payments/:id/qr", pay.QRCode, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/payment-analytics", pay.Analytics, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/payment-types", pay.PaymentTypes, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/payment-methods", pay.PaymentMethods, anyMember)

	// Rent
	rent := deps.RentHandler
	rt.tenant(http.MethodPost, "/api/v1/rent/generate", rent.Generate, managers)
	rt.tenant(http.MethodGet, "/api/v1/rent/preview", rent.Preview, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/rent/late-fees", rent.LateFees, managers)
	rt.tenant(http.MethodGet, "/api/v1/rent-schedules", rent.ListSchedules, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/rent-schedules", rent.CreateSchedule, managers)
	rt.tenant(http.MethodGet, "/api/v1/rent-schedules/:id", rent.GetSchedule, anyMember)
	rt.tenant(http.MethodPatch, "/api/v1/rent-schedules/:id", rent.UpdateSchedule, managers)
	rt.tenant(http.MethodDelete, "/api/v1/rent-schedules/:id", rent.DeleteSchedule, managers)
	rt.tenant(http.MethodGet, "/api/v1/deposits", rent.ListDeposits, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/deposits", rent.CreateDeposit, staff)
	rt.tenant(http.MethodGet, "/api/v1/deposits/:id", rent.GetDeposit, anyMember)
	rt.tenant(http.MethodPost, "/api/v1/deposits/:id/refund", rent.RefundDeposit, managers)

	// Reports and reference data
	rt.tenant(http.MethodGet, "/api/v1/dashboard", deps.ReportHandler.Dashboard, anyMember)
	rt.tenant(http.MethodGet, "/api/v1/reports/payments.xlsx", deps.ReportHandler.ExportPayments, anyMember)
	rt.authenticated(http.MethodGet, "/api/v1/lookups/states", deps.LookupHandler.States)
	rt.authenticated(http.MethodGet, "/api/v1/lookups/states/:state/cities", deps.LookupHandler.Cities)
	rt.authenticated(http.MethodGet, "/api/v1/tools/deposit", deps.LookupHandler.DepositCalculator)

	// Integrations
	wh := deps.WebhookHandler
	rt.tenant(http.MethodGet, "/api/v1/webhooks", wh.List, admins)
	rt.tenant(http.MethodPost, "/api/v1/webhooks", wh.Create, admins)
	rt.tenant(http.MethodGet, "/api/v1/webhooks/:id", wh.Get, admins)
	rt.tenant(http.MethodPatch, "/api/v1/webhooks/:id", wh.Update, admins)
	rt.tenant(http.MethodDelete, "/api/v1/webhooks/:id", wh.Delete, admins)
	rt.tenant(http.MethodGet, "/api/v1/api-keys", deps.APIKeyHandler.List, admins)
	rt.tenant(http.MethodPost, "/api/v1/api-keys", deps.APIKeyHandler.Create, admins)
	rt.tenant(http.MethodDelete, "/api/v1/api-keys/:id", deps.APIKeyHandler.Revoke, admins)
	rt.tenant(http.MethodGet, "/api/v1/audit-logs", deps.AuditHandler.List, admins)

	// Platform operators
	sa := deps.SuperAdminHandler
	rt.public(http.MethodPost, "/api/v1/superadmin/auth/login", sa.Login)
	rt.platform(http.MethodGet, "/api/v1/superadmin/organizations", sa.ListOrganizations)
	rt.platform(http.MethodGet, "/api/v1/superadmin/organizations/:id", sa.GetOrganization)
	rt.platform(http.MethodPatch, "/api/v1/superadmin/organizations/:id", sa.UpdateOrganization)
	rt.platform(http.MethodGet, "/api/v1/superadmin/stats", sa.Stats)

	return logger.RequestLogger(router)
}

// public routes are unauthenticated and budgeted per client IP.
func (rt *routes) public(method, path string, h http.HandlerFunc) {
	rt.router.Handle(method, path, chain(h,
		middleware.Instrument(rt.deps.Metrics, method, path),
		rt.limit(middleware.LimitAuth),
	))
}

func (rt *routes) authenticated(method, path string, h http.HandlerFunc) {
	rt.router.Handle(method, path, chain(h,
		middleware.Instrument(rt.deps.Metrics, method, path),
		rt.deps.AuthMiddleware.Handle,
		rt.limit(limitClass(method)),
	))
}

// tenant routes resolve the caller's organization database before the handler runs.
func (rt *routes) tenant(method, path string, h http.HandlerFunc, roles []string) {
	rt.router.Handle(method, path, chain(h,
		middleware.Instrument(rt.deps.Metrics, method, path),
		rt.deps.AuthMiddleware.Handle,
		rt.deps.TenantMiddleware.Handle,
		rt.limit(limitClass(method)),
		middleware.RequireRole(roles...),
	))
}

func (rt *routes) platform(method, path string, h http.HandlerFunc) {
	rt.router.Handle(method, path, chain(h,
		middleware.Instrument(rt.deps.Metrics, method, path),
		rt.deps.AuthMiddleware.Handle,
		middleware.RequireSuperAdmin,
	))
}

func (rt *routes) limit(class string) middlewareFunc {
	if rt.deps.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	return rt.deps.RateLimiter.Limit(class)
}

func limitClass(method string) string {
	if method == http.MethodGet || method == http.MethodHead {
		return middleware.LimitAPIRead
	}
	return middleware.LimitAPIWrite
}

// chain applies middlewares so the first listed runs first.
func chain(handler http.HandlerFunc, middlewares ...middlewareFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
