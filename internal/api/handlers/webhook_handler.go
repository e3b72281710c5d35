package handlers

import (
	"net/http"

	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

type WebhookHandler struct {
	*Engines
}

func NewWebhookHandler(e *Engines) *WebhookHandler {
	return &WebhookHandler{Engines: e}
}

type WebhookRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1"`
	Secret string   `json:"secret"`
}

type WebhookPatchRequest struct {
	URL    *string  `json:"url" validate:"omitempty,url"`
	Events []string `json:"events"`
	Secret *string  `json:"secret"`
	Status *string  `json:"status" validate:"omitempty,oneof=active paused"`
}

func checkEvents(events []string) error {
	var errs errors.ValidationErrors
	for _, e := range events {
		known := false
		for _, k := range models.WebhookEvents {
			if e == k {
				known = true
				break
			}
		}
		if !known {
			errs.Add("events", "unknown event "+e)
		}
	}
	return errs.Err()
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req WebhookRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if err := checkEvents(req.Events); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	webhook := &models.Webhook{URL: req.URL, Events: req.Events, Secret: req.Secret}
	if webhook.Secret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			errors.WriteDomainError(w, err)
			return
		}
		webhook.Secret = "whsec_" + secret
	}

	if err := repositories.NewWebhookRepository(tc.DB).Create(r.Context(), webhook); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "webhook.create", "webhook", webhook.ID, map[string]interface{}{"url": webhook.URL})
	writeJSON(w, http.StatusCreated, webhook)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	hooks, err := repositories.NewWebhookRepository(tc.DB).List(r.Context())
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(hooks, len(hooks)))
}

func (h *WebhookHandler) find(w http.ResponseWriter, r *http.Request, repo *repositories.WebhookRepository) (*models.Webhook, bool) {
	webhook, err := repo.GetByID(r.Context(), param(r, "id"))
	if err == nil && webhook == nil {
		err = errors.NotFound("webhook")
	}
	if err != nil {
		errors.WriteDomainError(w, err)
		return nil, false
	}
	return webhook, true
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	webhook, ok := h.find(w, r, repositories.NewWebhookRepository(tc.DB))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, webhook)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	var req WebhookPatchRequest
	if err := decode(r, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if err := checkEvents(req.Events); err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	repo := repositories.NewWebhookRepository(tc.DB)
	webhook, ok := h.find(w, r, repo)
	if !ok {
		return
	}
	if req.URL != nil {
		webhook.URL = *req.URL
	}
	if len(req.Events) > 0 {
		webhook.Events = req.Events
	}
	if req.Secret != nil && *req.Secret != "" {
		webhook.Secret = *req.Secret
	}
	if req.Status != nil {
		webhook.Status = *req.Status
	}

	if err := repo.Update(r.Context(), webhook); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "webhook.update", "webhook", webhook.ID, map[string]interface{}{"status": webhook.Status})
	writeJSON(w, http.StatusOK, webhook)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenantContext(w, r)
	if !ok {
		return
	}
	repo := repositories.NewWebhookRepository(tc.DB)
	webhook, ok := h.find(w, r, repo)
	if !ok {
		return
	}
	if err := repo.Delete(r.Context(), webhook.ID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	h.audit(r, "webhook.delete", "webhook", webhook.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}
