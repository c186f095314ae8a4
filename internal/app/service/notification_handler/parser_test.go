package notification_handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/admeter/pkg/config"
)

func TestPayPalParser_Parse(t *testing.T) {
	p := NewPayPalParser(config.PayPalConfig{}, nil)
	tests := []struct {
		name    string
		payload string
		typ     EventType
		subID   string
	}{
		{"sale completed", `{"id":"1","event_type":"PAYMENT.SALE.COMPLETED","resource":{"id":"SALE-1","billing_agreement_id":"I-1"}}`, EventTypePaymentSucceeded, "I-1"},
		{"one-off sale", `{"id":"2","event_type":"PAYMENT.SALE.COMPLETED","resource":{"id":"SALE-2"}}`, EventTypeIgnored, ""},
		{"cancelled", `{"id":"3","event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"I-3"}}`, EventTypeCancelled, "I-3"},
		{"expired", `{"id":"4","event_type":"BILLING.SUBSCRIPTION.EXPIRED","resource":{"id":"I-4"}}`, EventTypeExpired, "I-4"},
		{"suspended", `{"id":"5","event_type":"BILLING.SUBSCRIPTION.SUSPENDED","resource":{"id":"I-5"}}`, EventTypeExpired, "I-5"},
		{"unknown", `{"id":"6","event_type":"CUSTOMER.DISPUTE.CREATED","resource":{"id":"D-1"}}`, EventTypeIgnored, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := p.Parse(context.Background(), []byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, tt.typ, ev.Type)
			require.Equal(t, tt.subID, ev.ProviderSubscriptionID)
		})
	}

	_, err := p.Parse(context.Background(), []byte(`{"event_type":"PAYMENT.SALE.COMPLETED"}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestStripeParser_Parse(t *testing.T) {
	p := NewStripeParser(config.StripeConfig{})
	tests := []struct {
		name    string
		payload string
		typ     EventType
		subID   string
	}{
		{"invoice paid", `{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`, EventTypePaymentSucceeded, "sub_1"},
		{"invoice without subscription", `{"id":"evt_2","type":"invoice.payment_succeeded","data":{"object":{"id":"in_2"}}}`, EventTypeIgnored, ""},
		{"deleted", `{"id":"evt_3","type":"customer.subscription.deleted","data":{"object":{"id":"sub_3"}}}`, EventTypeCancelled, "sub_3"},
		{"paused", `{"id":"evt_4","type":"customer.subscription.paused","data":{"object":{"id":"sub_4"}}}`, EventTypeExpired, "sub_4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := p.Parse(context.Background(), []byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, tt.typ, ev.Type)
			require.Equal(t, tt.subID, ev.ProviderSubscriptionID)
		})
	}
}

func TestAppleEventType(t *testing.T) {
	tests := []struct {
		typ, subtype string
		want         EventType
	}{
		{"SUBSCRIBED", "INITIAL_BUY", EventTypePaymentSucceeded},
		{"DID_RENEW", "", EventTypePaymentSucceeded},
		{"EXPIRED", "VOLUNTARY", EventTypeExpired},
		{"GRACE_PERIOD_EXPIRED", "", EventTypeExpired},
		{"REFUND", "", EventTypeCancelled},
		{"REVOKE", "", EventTypeCancelled},
		{"DID_CHANGE_RENEWAL_STATUS", "AUTO_RENEW_DISABLED", EventTypeCancelled},
		{"DID_CHANGE_RENEWAL_STATUS", "AUTO_RENEW_ENABLED", EventTypeIgnored},
		{"TEST", "", EventTypeIgnored},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, appleEventType(tt.typ, tt.subtype), tt.typ+":"+tt.subtype)
	}
}
