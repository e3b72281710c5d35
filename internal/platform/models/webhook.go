package models

// Webhook event names.
const (
	EventPaymentPaid                = "payment.paid"
	EventPaymentTransactionRecorded = "payment.transaction_recorded"
	EventRentGenerated              = "rent.generated"
	EventLateFeesAssessed           = "late_fees.assessed"
	EventTenantMoved                = "tenant.moved"
)

// WebhookEvents lists every event an endpoint may subscribe to.
var WebhookEvents = []string{
	EventPaymentPaid,
	EventPaymentTransactionRecorded,
	EventRentGenerated,
	EventLateFeesAssessed,
	EventTenantMoved,
}

type Webhook struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Events          []string `json:"events"` // JSON array in DB
	Secret          string   `json:"secret"`
	Status          string   `json:"status"` // active, paused, failed
	RetryCount      int      `json:"retry_count"`
	LastTriggeredAt int64    `json:"last_triggered_at,omitempty"`
	LastError       string   `json:"last_error,omitempty"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

// Subscribes reports whether the webhook is active and listening for event.
func (w *Webhook) Subscribes(event string) bool {
	if w.Status != "active" {
		return false
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

type WebhookEvent struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	OrgID     string      `json:"org_id"`
	Data      interface{} `json:"data"`
}
