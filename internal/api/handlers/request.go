package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/engine/payments"
	"propertyhub/internal/engine/properties"
	"propertyhub/internal/engine/reports"
	"propertyhub/internal/engine/tenants"
	"propertyhub/internal/engine/webhooks"
	"propertyhub/internal/pkg/dates"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/pkg/lookup"
	"propertyhub/internal/platform/audit"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/metrics"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs its struct-tag validation.
// An empty body is treated as an empty object.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return err
		}
		var verrs errors.ValidationErrors
		for _, fe := range fieldErrs {
			verrs.Add(fe.Field(), describe(fe))
		}
		return verrs.Err()
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// list wraps a collection so clients always receive an object.
func list(items interface{}, total int) map[string]interface{} {
	return map[string]interface{}{"data": items, "total": total}
}

func param(r *http.Request, name string) string {
	return apiContext.Param(r.Context(), name)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

// page converts ?page=&limit= into limit/offset, capping limit at 100.
func page(r *http.Request) (limit, offset int) {
	p := queryInt(r, "page", 1)
	if p < 1 {
		p = 1
	}
	limit = queryInt(r, "limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return limit, (p - 1) * limit
}

// Engines carries the process-wide collaborators and builds the per-organization
// services for a request from its tenant context.
type Engines struct {
	Webhooks *webhooks.Dispatcher
	Metrics  *metrics.Metrics
	Lookup   *lookup.Service
	Audit    *audit.Logger
	Location *time.Location
	Now      func() time.Time
}

func (e *Engines) clock() time.Time {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	if e.Location != nil {
		now = now.In(e.Location)
	}
	return now
}

func (e *Engines) today() string {
	return dates.Format(dates.Today(e.clock()))
}

func (e *Engines) publisher(tc *database.TenantContext) *webhooks.Publisher {
	if e.Webhooks == nil {
		return nil
	}
	return e.Webhooks.Bind(tc.OrgID, tc.DB)
}

func (e *Engines) payments(tc *database.TenantContext) *payments.Service {
	var events payments.EventPublisher
	if p := e.publisher(tc); p != nil {
		events = p
	}
	return payments.NewService(tc.DB, events, e.Metrics).WithClock(e.clock)
}

func (e *Engines) properties(tc *database.TenantContext) *properties.Service {
	var states properties.StateLookup
	if e.Lookup != nil {
		states = e.Lookup
	}
	return properties.NewService(tc.DB, tc.OrgID, states).WithClock(e.clock)
}

func (e *Engines) tenants(tc *database.TenantContext) *tenants.Service {
	var events tenants.EventPublisher
	if p := e.publisher(tc); p != nil {
		events = p
	}
	return tenants.NewService(tc.DB, tc.OrgID, events).WithClock(e.clock)
}

func (e *Engines) reports(tc *database.TenantContext) *reports.Service {
	return reports.NewService(e.payments(tc), e.properties(tc), e.tenants(tc))
}

// audit records a mutating action by the caller. It never fails the request.
func (e *Engines) audit(r *http.Request, action, resourceType, resourceID string, metadata map[string]interface{}) {
	if e.Audit == nil {
		return
	}
	claims, ok := apiContext.ClaimsFrom(r.Context())
	if !ok {
		return
	}
	e.Audit.Log(r.Context(), actor(r, claims), action, resourceType, resourceID, metadata)
}

func actor(r *http.Request, claims *auth.Claims) audit.Actor {
	return audit.Actor{
		OrganizationID: claims.OrganizationID,
		UserID:         claims.UserID,
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	}
}

// tenantContext fetches what the tenant middleware attached; routes without it are misconfigured.
func tenantContext(w http.ResponseWriter, r *http.Request) (*database.TenantContext, bool) {
	tc, ok := apiContext.TenantFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Tenant context missing", nil)
	}
	return tc, ok
}
