package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

const (
	HeaderSignature = "X-PropertyHub-Signature"
	HeaderEvent     = "X-PropertyHub-Event"
	HeaderDelivery  = "X-PropertyHub-Delivery"
)

// Dispatcher delivers organization events to their subscribed endpoints.
// Deliveries run in the background; Wait blocks until in-flight ones finish.
type Dispatcher struct {
	client  *resty.Client
	metrics *metrics.Metrics
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "PropertyHub-Webhooks/1.0")

	return &Dispatcher{client: client, metrics: m, now: time.Now}
}

// Bind returns a publisher scoped to one organization's tenant database.
func (d *Dispatcher) Bind(orgID string, db *sql.DB) *Publisher {
	return &Publisher{d: d, orgID: orgID, repo: repositories.NewWebhookRepository(db)}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publisher satisfies the engines' event sink.
type Publisher struct {
	d     *Dispatcher
	orgID string
	repo  *repositories.WebhookRepository
}

func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) {
	p.d.Dispatch(context.WithoutCancel(ctx), p.repo, p.orgID, eventType, data)
}

func (d *Dispatcher) Dispatch(ctx context.Context, repo *repositories.WebhookRepository, orgID, eventType string, data interface{}) {
	webhooks, err := repo.GetByEvent(ctx, eventType)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Str("event", eventType).Msg("Failed to load webhooks")
		return
	}
	if len(webhooks) == 0 {
		return
	}

	event := &models.WebhookEvent{
		ID:        "evt_" + uuid.New().String(),
		Event:     eventType,
		Timestamp: d.now().Unix(),
		OrgID:     orgID,
		Data:      data,
	}

	for _, webhook := range webhooks {
		d.wg.Add(1)
		go func(w *models.Webhook) {
			defer d.wg.Done()
			d.deliver(ctx, repo, w, event)
		}(webhook)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, repo *repositories.WebhookRepository, webhook *models.Webhook, event *models.WebhookEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Event).Msg("Failed to encode webhook event")
		return
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader(HeaderSignature, Sign(webhook.Secret, payload)).
		SetHeader(HeaderEvent, event.Event).
		SetHeader(HeaderDelivery, event.ID).
		SetBody(payload).
		Post(webhook.URL)

	now := d.now().Unix()
	if err == nil && resp.StatusCode() < 400 {
		d.count(event.Event, "ok")
		if err := repo.RecordSuccess(ctx, webhook.ID, now); err != nil {
			log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("Failed to record webhook success")
		}
		return
	}

	errStr := ""
	if err != nil {
		errStr = err.Error()
	} else {
		errStr = fmt.Sprintf("HTTP %d", resp.StatusCode())
	}

	d.count(event.Event, "failed")
	log.Warn().Str("webhook_id", webhook.ID).Str("event", event.Event).Str("error", errStr).Msg("Webhook delivery failed")
	if err := repo.RecordFailure(ctx, webhook.ID, now, errStr); err != nil {
		log.Error().Err(err).Str("webhook_id", webhook.ID).Msg("Failed to record webhook failure")
	}
}

func (d *Dispatcher) count(event, result string) {
	if d.metrics != nil {
		d.metrics.WebhookDeliveries.WithLabelValues(event, result).Inc()
	}
}
