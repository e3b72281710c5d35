package handlers

import (
	"net/http"

	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/repositories"
)

// SuperAdminHandler serves the platform operators' portal.
type SuperAdminHandler struct {
	orgs *organizations.Service
}

func NewSuperAdminHandler(orgs *organizations.Service) *SuperAdminHandler {
	return &SuperAdminHandler{orgs: orgs}
}

type UpdateOrganizationRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=200"`
	SubscriptionPlan   *string `json:"subscription_plan" validate:"omitempty,oneof=starter professional enterprise"`
	SubscriptionStatus *string `json:"subscription_status" validate:"omitempty,oneof=trial active suspended canceled"`
	TrialEndsAt        *int64  `json:"trial_ends_at"`
}

func (h *SuperAdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	session, err := h.orgs.SuperAdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SuperAdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	orgs, total, err := h.orgs.ListOrganizations(r.Context(), repositories.OrganizationFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(orgs, total))
}

func (h *SuperAdminHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetOrganization(r.Context(), param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *SuperAdminHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrganizationRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	org, err := h.orgs.UpdateOrganization(r.Context(), param(r, "id"), organizations.OrganizationUpdate{
		Name:        req.Name,
		Plan:        req.SubscriptionPlan,
		Status:      req.SubscriptionStatus,
		TrialEndsAt: req.TrialEndsAt,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *SuperAdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orgs.Stats(r.Context())
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
