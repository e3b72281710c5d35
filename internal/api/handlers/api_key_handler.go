package handlers

import (
	"net/http"
	"time"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

// APIKeyHandler manages read-only integration keys. Keys live in the global database.
type APIKeyHandler struct {
	*Engines
	keys *repositories.APIKeyRepository
}

func NewAPIKeyHandler(e *Engines, keys *repositories.APIKeyRepository) *APIKeyHandler {
	return &APIKeyHandler{Engines: e, keys: keys}
}

type CreateAPIKeyRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays int      `json:"expires_in_days" validate:"min=0,max=3650"`
}

type createdAPIKey struct {
	*models.APIKey
	Key string `json:"key"`
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := apiContext.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}
	var req CreateAPIKeyRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	plain, hash, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	key := &models.APIKey{
		OrganizationID: claims.OrganizationID,
		UserID:         claims.UserID,
		Name:           req.Name,
		KeyHash:        hash,
		KeyPrefix:      prefix,
		Scopes:         req.Scopes,
	}
	if req.ExpiresInDays > 0 {
		exp := h.clock().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		key.ExpiresAt = &exp
	}

	if err := h.keys.Create(r.Context(), key); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "api_key.create", "api_key", key.ID, map[string]interface{}{"name": key.Name})

	// The plaintext key is only ever returned here.
	writeJSON(w, http.StatusCreated, createdAPIKey{APIKey: key, Key: plain})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := apiContext.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}
	keys, err := h.keys.ListByOrg(r.Context(), claims.OrganizationID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(keys, len(keys)))
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := apiContext.ClaimsFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
		return
	}
	id := param(r, "id")
	revoked, err := h.keys.Revoke(r.Context(), claims.OrganizationID, id)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if !revoked {
		errors.WriteDomainError(w, errors.NotFound("api key"))
		return
	}
	h.audit(r, "api_key.revoke", "api_key", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// AuditHandler lists the organization's recent audit trail.
type AuditHandler struct {
	*Engines
}

func NewAuditHandler(e *Engines) *AuditHandler {
	return &AuditHandler{Engines: e}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	entries, err := h.Audit.List(r.Context(), tc.OrgID, queryInt(r, "limit", 100))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(entries, len(entries)))
}
