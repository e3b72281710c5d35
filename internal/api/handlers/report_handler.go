package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/currency"
	"propertyhub/internal/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	*Engines
}

func NewReportHandler(e *Engines) *ReportHandler {
	return &ReportHandler{Engines: e}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	d, err := h.reports(tc).Dashboard(r.Context(), h.today())
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ExportPayments streams ?from=&to= as an .xlsx attachment.
func (h *ReportHandler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	body, err := h.reports(tc).ExportPaymentsXLSX(r.Context(), from, to)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payments_%s_%s.xlsx"`, from, to))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// LookupHandler serves the reference data used by forms. None of it is tenant scoped.
type LookupHandler struct {
	*Engines
}

func NewLookupHandler(e *Engines) *LookupHandler {
	return &LookupHandler{Engines: e}
}

func (h *LookupHandler) States(w http.ResponseWriter, r *http.Request) {
	states := h.Lookup.States(r.Context())
	writeJSON(w, http.StatusOK, list(states, len(states)))
}

func (h *LookupHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Lookup.Cities(r.Context(), param(r, "state"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(cities, len(cities)))
}

type depositQuote struct {
	MonthlyRent decimal.Decimal  `json:"monthly_rent"`
	Breakdown   currency.Deposit `json:"breakdown"`
	Formatted   string           `json:"formatted_total"`
}

// DepositCalculator quotes the move-in deposit for ?rent=.
func (h *LookupHandler) DepositCalculator(w http.ResponseWriter, r *http.Request) {
	rent, err := currency.Parse(r.URL.Query().Get("rent"))
	if err != nil {
		var verrs errors.ValidationErrors
		verrs.AddErr("rent", err)
		errors.WriteDomainError(w, verrs.Err())
		return
	}
	d := currency.CalculateDeposit(rent)
	writeJSON(w, http.StatusOK, depositQuote{
		MonthlyRent: rent,
		Breakdown:   d,
		Formatted:   currency.Format(d.Total),
	})
}
