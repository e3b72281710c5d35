package handlers

import (
	"net/http"

	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/pkg/errors"
)

type OrgHandler struct {
	*Engines
	orgs *organizations.Service
}

func NewOrgHandler(e *Engines, orgs *organizations.Service) *OrgHandler {
	return &OrgHandler{Engines: e, orgs: orgs}
}

type CreateOrgRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type UpdateOrgRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// Create is the public signup: a trial organization plus its owner.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrgRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	session, err := h.orgs.Signup(r.Context(), organizations.SignupInput{
		Name:     req.Name,
		Slug:     req.Slug,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}

	org, err := h.orgs.GetOrganization(r.Context(), tc.OrgID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req UpdateOrgRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	org, err := h.orgs.RenameCurrent(r.Context(), tc.OrgID, req.Name)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "organization.update", "organization", org.ID, map[string]interface{}{"name": org.Name})
	writeJSON(w, http.StatusOK, org)
}
