package handlers

import (
	"testing"

	"github.com/otienojr/park_space/services"
	"github.com/stretchr/testify/assert"
)

func TestProviderStatusFromEvent(t *testing.T) {
	cases := []struct {
		eventType      string
		amount         int64
		amountRefunded int64
		wantStatus     string
		wantKnown      bool
	}{
		{"payment_intent.succeeded", 1500, 0, services.ProviderStatusSucceeded, true},
		{"payment_intent.payment_failed", 1500, 0, services.ProviderStatusFailed, true},
		{"payment_intent.canceled", 1500, 0, services.ProviderStatusCancelled, true},
		{"charge.refunded", 1500, 1500, services.ProviderStatusRefunded, true},
		{"charge.refunded", 1500, 500, services.ProviderStatusPartialRefund, true},
		{"payment_intent.created", 1500, 0, "", false},
		{"customer.updated", 0, 0, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			payload := &StripeWebhookPayload{Type: tc.eventType}
			payload.Data.Object.Amount = tc.amount
			payload.Data.Object.AmountRefunded = tc.amountRefunded

			status, known := providerStatusFromEvent(payload)
			assert.Equal(t, tc.wantKnown, known)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}
