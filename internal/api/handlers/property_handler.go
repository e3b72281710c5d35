package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"propertyhub/internal/engine/properties"
	"propertyhub/internal/pkg/errors"
)

type PropertyHandler struct {
	*Engines
}

func NewPropertyHandler(e *Engines) *PropertyHandler {
	return &PropertyHandler{Engines: e}
}

type PropertyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	ZipCode      string `json:"zip_code"`
	PropertyType string `json:"property_type"`
	TotalUnits   int    `json:"total_units" validate:"min=0"`
	Description  string `json:"description"`
}

type PropertyPatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zip_code"`
	PropertyType *string `json:"property_type"`
	TotalUnits   *int    `json:"total_units" validate:"omitempty,min=0"`
	Description  *string `json:"description"`
}

type UnitRequest struct {
	PropertyID string          `json:"property_id" validate:"required"`
	UnitNumber string          `json:"unit_number" validate:"required,max=50"`
	UnitType   string          `json:"unit_type"`
	Bedrooms   int             `json:"bedrooms" validate:"min=0"`
	Bathrooms  int             `json:"bathrooms" validate:"min=0"`
	SquareFeet int             `json:"square_feet" validate:"min=0"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     string          `json:"status"`
}

type UnitPatchRequest struct {
	UnitNumber *string          `json:"unit_number" validate:"omitempty,max=50"`
	UnitType   *string          `json:"unit_type"`
	Bedrooms   *int             `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms  *int             `json:"bathrooms" validate:"omitempty,min=0"`
	SquareFeet *int             `json:"square_feet" validate:"omitempty,min=0"`
	RentAmount *decimal.Decimal `json:"rent_amount"`
	Status     *string          `json:"status"`
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	limit, offset := page(r)
	items, err := h.properties(tc).ListProperties(r.Context(), properties.PropertyFilter{
		Search: r.URL.Query().Get("search"),
		State:  r.URL.Query().Get("state"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req PropertyRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	p, err := h.properties(tc).CreateProperty(r.Context(), properties.PropertyInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "property.create", "property", p.ID, map[string]interface{}{"name": p.Name})
	writeJSON(w, http.StatusCreated, p)
}

func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	p, err := h.properties(tc).GetProperty(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req PropertyPatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	p, err := h.properties(tc).UpdateProperty(r.Context(), param(r, "id"), properties.PropertyUpdate(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "property.update", "property", p.ID, nil)
	writeJSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	id := param(r, "id")
	if err := h.properties(tc).DeleteProperty(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "property.delete", "property", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ListUnits serves both /units?property_id= and /properties/:id/units.
func (h *PropertyHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	propertyID := param(r, "id")
	if propertyID == "" {
		propertyID = r.URL.Query().Get("property_id")
	}
	items, err := h.properties(tc).ListUnits(r.Context(), properties.UnitFilter{
		PropertyID: propertyID,
		Status:     r.URL.Query().Get("status"),
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items, len(items)))
}

func (h *PropertyHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req UnitRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	u, err := h.properties(tc).CreateUnit(r.Context(), properties.UnitInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "unit.create", "unit", u.ID, map[string]interface{}{"unit_number": u.UnitNumber})
	writeJSON(w, http.StatusCreated, u)
}

func (h *PropertyHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	u, err := h.properties(tc).GetUnit(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *PropertyHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req UnitPatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	u, err := h.properties(tc).UpdateUnit(r.Context(), param(r, "id"), properties.UnitUpdate(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "unit.update", "unit", u.ID, map[string]interface{}{"status": u.Status})
	writeJSON(w, http.StatusOK, u)
}

func (h *PropertyHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	id := param(r, "id")
	if err := h.properties(tc).DeleteUnit(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "unit.delete", "unit", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	stats, err := h.properties(tc).OccupancyStats(r.Context(), r.URL.Query().Get("property_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
