package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/types"
)

const stripeSignatureHeader = "Stripe-Signature"

type StripeParser struct {
	cfg config.StripeConfig
}

func NewStripeParser(cfg config.StripeConfig) *StripeParser {
	return &StripeParser{cfg: cfg}
}

func (p *StripeParser) Provider() types.PaymentProvider { return types.PaymentProviderStripe }

func (p *StripeParser) Configured() bool { return p.cfg.WebhookSecret != "" }

func (p *StripeParser) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	_, err := webhook.ConstructEventWithOptions(payload, headers.Get(stripeSignatureHeader), p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	return err
}

func (p *StripeParser) Parse(ctx context.Context, payload []byte) (*ProviderEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.ID == "" || event.Type == "" || event.Data == nil {
		return nil, fmt.Errorf("%w: missing id, type or data", ErrMalformedEvent)
	}

	ev := &ProviderEvent{ID: event.ID, RawType: string(event.Type), Type: EventTypeIgnored}
	switch event.Type {
	case stripe.EventTypeInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
		}
		if invoice.Subscription != nil && invoice.Subscription.ID != "" {
			ev.Type = EventTypePaymentSucceeded
			ev.ProviderSubscriptionID = invoice.Subscription.ID
		}
	case stripe.EventTypeCustomerSubscriptionDeleted, stripe.EventTypeCustomerSubscriptionPaused:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
		}
		ev.Type = EventTypeCancelled
		if event.Type == stripe.EventTypeCustomerSubscriptionPaused {
			ev.Type = EventTypeExpired
		}
		ev.ProviderSubscriptionID = sub.ID
	}
	return ev, nil
}
