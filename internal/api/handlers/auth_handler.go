package handlers

import (
	"net/http"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/pkg/errors"
)

type AuthHandler struct {
	orgs *organizations.Service
}

func NewAuthHandler(orgs *organizations.Service) *AuthHandler {
	return &AuthHandler{orgs: orgs}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	session, err := h.orgs.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	session, err := h.orgs.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Logout is stateless: tokens expire on their own and the client discards them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := apiContext.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}

	user, err := h.orgs.Me(r.Context(), claims.UserID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
