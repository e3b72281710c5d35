package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/pkg/errors"
)

// RentHandler serves rent schedules, monthly generation, late fees and deposits.
type RentHandler struct {
	*Engines
}

func NewRentHandler(e *Engines) *RentHandler {
	return &RentHandler{Engines: e}
}

type GenerateRentRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
}

type LateFeeRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

type ScheduleRequest struct {
	TenantID      string          `json:"tenant_id" validate:"required"`
	UnitID        *string         `json:"unit_id"`
	RentAmount    decimal.Decimal `json:"rent_amount"`
	DueDay        int             `json:"due_day" validate:"required,min=1,max=31"`
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       *string         `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	LateFeeAmount decimal.Decimal `json:"late_fee_amount"`
	LateFeeDays   int             `json:"late_fee_days" validate:"min=0"`
	IsActive      *bool           `json:"is_active"`
}

type SchedulePatchRequest struct {
	UnitID        *string          `json:"unit_id"`
	RentAmount    *decimal.Decimal `json:"rent_amount"`
	DueDay        *int             `json:"due_day" validate:"omitempty,min=1,max=31"`
	StartDate     *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string          `json:"end_date"`
	LateFeeAmount *decimal.Decimal `json:"late_fee_amount"`
	LateFeeDays   *int             `json:"late_fee_days" validate:"omitempty,min=0"`
	IsActive      *bool            `json:"is_active"`
}

type DepositRequest struct {
	TenantID     string          `json:"tenant_id" validate:"required"`
	UnitID       *string         `json:"unit_id"`
	Amount       decimal.Decimal `json:"amount"`
	ReceivedDate string          `json:"received_date" validate:"omitempty,datetime=2006-01-02"`
}

type RefundRequest struct {
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	Deductions     decimal.Decimal `json:"deductions"`
	DeductionNotes string          `json:"deduction_notes"`
	RefundDate     string          `json:"refund_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *RentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req GenerateRentRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	res, err := h.payments(tc).GenerateMonthlyRent(r.Context(), req.Month, req.Year)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "rent.generate", "organization", tc.OrgID, map[string]interface{}{
		"month":   req.Month,
		"year":    req.Year,
		"created": len(res.Created),
		"skipped": len(res.Skipped),
	})
	writeJSON(w, http.StatusOK, res)
}

// Preview reports what Generate would create for ?month=&year= without writing.
func (h *RentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	now := h.clock()
	month := queryInt(r, "month", int(now.Month()))
	year := queryInt(r, "year", now.Year())

	res, err := h.payments(tc).PreviewMonthlyRent(r.Context(), month, year)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RentHandler) LateFees(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req LateFeeRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	res, err := h.payments(tc).AssessLateFees(r.Context(), req.AsOf)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "rent.late_fees", "organization", tc.OrgID, map[string]interface{}{
		"as_of":   res.AsOf,
		"created": len(res.Created),
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *RentHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListSchedules(r.Context(), payments.ScheduleFilter{
		TenantID:   r.URL.Query().Get("tenant_id"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *RentHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	rs, err := h.payments(tc).CreateSchedule(r.Context(), payments.ScheduleInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "rent_schedule.create", "rent_schedule", rs.ID, map[string]interface{}{"tenant_id": rs.TenantID})
	writeJSON(w, http.StatusCreated, rs)
}

func (h *RentHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	rs, err := h.payments(tc).GetSchedule(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *RentHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req SchedulePatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	rs, err := h.payments(tc).UpdateSchedule(r.Context(), param(r, "id"), payments.ScheduleUpdate(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "rent_schedule.update", "rent_schedule", rs.ID, nil)
	writeJSON(w, http.StatusOK, rs)
}

func (h *RentHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	id := param(r, "id")
	if err := h.payments(tc).DeleteSchedule(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "rent_schedule.delete", "rent_schedule", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListDeposits(r.Context(), payments.DepositFilter{
		TenantID: r.URL.Query().Get("tenant_id"),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *RentHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req DepositRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	d, err := h.payments(tc).RecordDeposit(r.Context(), payments.DepositInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "deposit.create", "security_deposit", d.ID, map[string]interface{}{"amount": d.Amount.String()})
	writeJSON(w, http.StatusCreated, d)
}

func (h *RentHandler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	d, err := h.payments(tc).GetDeposit(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *RentHandler) RefundDeposit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req RefundRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	d, err := h.payments(tc).RefundDeposit(r.Context(), param(r, "id"), payments.RefundInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "deposit.refund", "security_deposit", d.ID, map[string]interface{}{
		"refund_amount": d.RefundAmount.Decimal.String(),
		"status":        d.Status,
	})
	writeJSON(w, http.StatusOK, d)
}
