package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/pkg/errors"
)

type PaymentHandler struct {
	*Engines
}

func NewPaymentHandler(e *Engines) *PaymentHandler {
	return &PaymentHandler{Engines: e}
}

type PaymentRequest struct {
	TenantID        string          `json:"tenant_id" validate:"required"`
	UnitID          *string         `json:"unit_id"`
	PaymentTypeID   string          `json:"payment_type_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	Description     string          `json:"description" validate:"max=500"`
	IsRecurring     bool            `json:"is_recurring"`
	RecurringPeriod string          `json:"recurring_period" validate:"omitempty,oneof=monthly"`
}

type PaymentPatchRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     *string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
}

type TransactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID string          `json:"payment_method_id"`
	TransactionDate string          `json:"transaction_date" validate:"omitempty,datetime=2006-01-02"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	Notes           string          `json:"notes"`
}

func paymentFilter(r *http.Request) payments.ListFilter {
	limit, offset := page(r)
	q := r.URL.Query()
	return payments.ListFilter{
		TenantID:   q.Get("tenant_id"),
		UnitID:     q.Get("unit_id"),
		PropertyID: q.Get("property_id"),
		Status:     q.Get("status"),
		TypeID:     q.Get("payment_type_id"),
		TypeName:   q.Get("type"),
		DueFrom:    q.Get("from"),
		DueTo:      q.Get("to"),
		Limit:      limit,
		Offset:     offset,
	}
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListPayments(r.Context(), paymentFilter(r))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	p, err := h.payments(tc).CreatePayment(r.Context(), payments.CreatePaymentInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "payment.create", "payment", p.ID, map[string]interface{}{"amount": p.Amount.String(), "tenant_id": p.TenantID})
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	p, err := h.payments(tc).GetPayment(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req PaymentPatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	p, err := h.payments(tc).UpdatePayment(r.Context(), param(r, "id"), payments.UpdatePaymentInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "payment.update", "payment", p.ID, nil)
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	id := param(r, "id")
	if err := h.payments(tc).DeletePayment(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "payment.delete", "payment", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	p, err := h.payments(tc).CancelPayment(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "payment.cancel", "payment", p.ID, nil)
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req TransactionRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	res, err := h.payments(tc).RecordTransaction(r.Context(), param(r, "id"), payments.RecordTransactionInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "transaction.create", "payment", res.Payment.ID, map[string]interface{}{
		"amount": res.Transaction.Amount.String(),
		"status": res.Payment.Status,
	})
	writeJSON(w, http.StatusCreated, res)
}

func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListTransactions(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

// QRCode renders the payment reference as a PNG; ?size= sets the edge in pixels.
func (h *PaymentHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	png, err := h.payments(tc).PaymentQRCode(r.Context(), param(r, "id"), queryInt(r, "size", 256))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *PaymentHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	a, err := h.payments(tc).Analytics(r.Context(), paymentFilter(r))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *PaymentHandler) PaymentTypes(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListPaymentTypes(r.Context())
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *PaymentHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	items, err := h.payments(tc).ListPaymentMethods(r.Context())
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}
