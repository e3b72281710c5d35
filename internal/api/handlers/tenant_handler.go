package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"propertyhub/internal/engine/tenants"
	"propertyhub/internal/pkg/errors"
)

type TenantHandler struct {
	*Engines
}

func NewTenantHandler(e *Engines) *TenantHandler {
	return &TenantHandler{Engines: e}
}

type TenantRequest struct {
	UnitID                *string         `json:"unit_id"`
	FirstName             string          `json:"first_name" validate:"required,max=100"`
	LastName              string          `json:"last_name" validate:"required,max=100"`
	Email                 string          `json:"email" validate:"omitempty,email"`
	Phone                 string          `json:"phone"`
	ICNumber              string          `json:"ic_number"`
	Nationality           string          `json:"nationality"`
	WorkPermitNumber      string          `json:"work_permit_number"`
	WorkPermitExpiry      *string         `json:"work_permit_expiry"`
	EmergencyContactName  string          `json:"emergency_contact_name"`
	EmergencyContactPhone string          `json:"emergency_contact_phone"`
	LeaseStartDate        *string         `json:"lease_start_date"`
	LeaseEndDate          *string         `json:"lease_end_date"`
	MoveInDate            *string         `json:"move_in_date"`
	RentAmount            decimal.Decimal `json:"rent_amount"`
	SecurityDeposit       decimal.Decimal `json:"security_deposit"`
	Status                string          `json:"status" validate:"omitempty,oneof=active pending inactive moved_out"`
	Notes                 string          `json:"notes"`
}

type TenantPatchRequest struct {
	UnitID                *string          `json:"unit_id"`
	FirstName             *string          `json:"first_name" validate:"omitempty,max=100"`
	LastName              *string          `json:"last_name" validate:"omitempty,max=100"`
	Email                 *string          `json:"email"`
	Phone                 *string          `json:"phone"`
	ICNumber              *string          `json:"ic_number"`
	Nationality           *string          `json:"nationality"`
	WorkPermitNumber      *string          `json:"work_permit_number"`
	WorkPermitExpiry      *string          `json:"work_permit_expiry"`
	EmergencyContactName  *string          `json:"emergency_contact_name"`
	EmergencyContactPhone *string          `json:"emergency_contact_phone"`
	LeaseStartDate        *string          `json:"lease_start_date"`
	LeaseEndDate          *string          `json:"lease_end_date"`
	MoveInDate            *string          `json:"move_in_date"`
	RentAmount            *decimal.Decimal `json:"rent_amount"`
	SecurityDeposit       *decimal.Decimal `json:"security_deposit"`
	Status                *string          `json:"status" validate:"omitempty,oneof=active pending inactive moved_out"`
	Notes                 *string          `json:"notes"`
}

type MoveRequest struct {
	NewUnitID string `json:"new_unit_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes"`
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	limit, offset := page(r)
	q := r.URL.Query()
	items, err := h.tenants(tc).List(r.Context(), tenants.ListFilter{
		Status:     q.Get("status"),
		UnitID:     q.Get("unit_id"),
		PropertyID: q.Get("property_id"),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req TenantRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	t, err := h.tenants(tc).Create(r.Context(), tenants.TenantInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "tenant.create", "tenant", t.ID, map[string]interface{}{"name": t.FullName(), "status": t.Status})
	writeJSON(w, http.StatusCreated, t)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	t, err := h.tenants(tc).Get(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req TenantPatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	t, err := h.tenants(tc).Update(r.Context(), param(r, "id"), tenants.TenantUpdate(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "tenant.update", "tenant", t.ID, map[string]interface{}{"status": t.Status})
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	id := param(r, "id")
	if err := h.tenants(tc).Delete(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "tenant.delete", "tenant", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TenantHandler) Move(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	t, err := h.tenants(tc).Move(r.Context(), param(r, "id"), tenants.MoveInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "tenant.move", "tenant", t.ID, map[string]interface{}{"unit_id": req.NewUnitID})
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Leases(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	leases, err := h.tenants(tc).ListLeases(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(leases, len(leases)))
}
