package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fatflowers/admeter/internal/platform/paypal"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/types"
)

type PayPalParser struct {
	cfg    config.PayPalConfig
	client *paypal.Client
}

func NewPayPalParser(cfg config.PayPalConfig, httpClient *http.Client) *PayPalParser {
	return &PayPalParser{
		cfg: cfg,
		client: paypal.NewClient(paypal.Options{
			BaseURL:      cfg.BaseURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			WebhookID:    cfg.WebhookID,
			HTTPClient:   httpClient,
		}),
	}
}

func (p *PayPalParser) Provider() types.PaymentProvider { return types.PaymentProviderPayPal }

func (p *PayPalParser) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != "" && p.cfg.WebhookID != ""
}

func (p *PayPalParser) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return p.client.VerifyWebhookSignature(ctx, headers, payload)
}

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                 string `json:"id"`
		BillingAgreementID string `json:"billing_agreement_id"`
	} `json:"resource"`
}

func (p *PayPalParser) Parse(ctx context.Context, payload []byte) (*ProviderEvent, error) {
	var raw paypalEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.ID == "" || raw.EventType == "" {
		return nil, fmt.Errorf("%w: missing id or event_type", ErrMalformedEvent)
	}

	ev := &ProviderEvent{ID: raw.ID, RawType: raw.EventType, Type: EventTypeIgnored}
	switch raw.EventType {
	case "PAYMENT.SALE.COMPLETED":
		ev.Type = EventTypePaymentSucceeded
		ev.ProviderSubscriptionID = raw.Resource.BillingAgreementID
	case "BILLING.SUBSCRIPTION.CANCELLED":
		ev.Type = EventTypeCancelled
		ev.ProviderSubscriptionID = raw.Resource.ID
	case "BILLING.SUBSCRIPTION.EXPIRED", "BILLING.SUBSCRIPTION.SUSPENDED":
		ev.Type = EventTypeExpired
		ev.ProviderSubscriptionID = raw.Resource.ID
	}
	// one-off sales carry no billing agreement
	if ev.Type != EventTypeIgnored && ev.ProviderSubscriptionID == "" {
		ev.Type = EventTypeIgnored
	}
	return ev, nil
}
