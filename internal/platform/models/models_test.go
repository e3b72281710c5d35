package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrganizationIsAccessible(t *testing.T) {
	past := int64(100)
	future := int64(10_000)

	tests := []struct {
		name string
		org  Organization
		want bool
	}{
		{"active", Organization{SubscriptionStatus: SubscriptionActive}, true},
		{"trial running", Organization{SubscriptionStatus: SubscriptionTrial, TrialEndsAt: &future}, true},
		{"trial expired", Organization{SubscriptionStatus: SubscriptionTrial, TrialEndsAt: &past}, false},
		{"trial without end", Organization{SubscriptionStatus: SubscriptionTrial}, true},
		{"suspended", Organization{SubscriptionStatus: SubscriptionSuspended}, false},
		{"canceled", Organization{SubscriptionStatus: SubscriptionCanceled}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.org.IsAccessible(1000))
		})
	}
}

func TestAPIKeyUsable(t *testing.T) {
	past := int64(100)
	assert.True(t, (&APIKey{}).Usable(1000))
	assert.False(t, (&APIKey{ExpiresAt: &past}).Usable(1000))
	assert.False(t, (&APIKey{RevokedAt: &past}).Usable(1000))
}

func TestWebhookSubscribes(t *testing.T) {
	w := &Webhook{Status: "active", Events: []string{EventPaymentPaid}}
	assert.True(t, w.Subscribes(EventPaymentPaid))
	assert.False(t, w.Subscribes(EventTenantMoved))

	w.Status = "paused"
	assert.False(t, w.Subscribes(EventPaymentPaid))
}
