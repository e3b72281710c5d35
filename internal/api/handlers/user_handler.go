package handlers

import (
	"net/http"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/pkg/errors"
)

// UserHandler manages the members of the caller's organization.
type UserHandler struct {
	*Engines
	orgs *organizations.Service
}

func NewUserHandler(e *Engines, orgs *organizations.Service) *UserHandler {
	return &UserHandler{Engines: e, orgs: orgs}
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin manager staff"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}

	users, err := h.orgs.ListMembers(r.Context(), tc.OrgID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(users, len(users)))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	user, err := h.orgs.AddMember(r.Context(), tc.OrgID, organizations.MemberInput(req))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "user.create", "user", user.ID, map[string]interface{}{"email": user.Email, "role": user.Role})
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}

	user, err := h.orgs.GetMember(r.Context(), tc.OrgID, param(r, "id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	user, err := h.orgs.UpdateMemberRole(r.Context(), tc.OrgID, callerID(r), param(r, "id"), req.Role)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "user.role_change", "user", user.ID, map[string]interface{}{"role": user.Role})
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}

	id := param(r, "id")
	if err := h.orgs.RemoveMember(r.Context(), tc.OrgID, callerID(r), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "user.delete", "user", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func callerID(r *http.Request) string {
	if claims, ok := apiContext.ClaimsFrom(r.Context()); ok {
		return claims.UserID
	}
	return ""
}
