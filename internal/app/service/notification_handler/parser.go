package notification_handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fatflowers/admeter/pkg/types"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrMissingCredentials  = errors.New("provider credentials not configured")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedEvent      = errors.New("malformed webhook event")
)

type EventType string

const (
	EventTypePaymentSucceeded EventType = "payment_succeeded"
	EventTypeCancelled        EventType = "cancelled"
	EventTypeExpired          EventType = "expired"
	EventTypeIgnored          EventType = "ignored"
)

// ProviderEvent is a provider notification normalized to the effects it has
// on a subscription.
type ProviderEvent struct {
	ID                     string    `json:"id"`
	Type                   EventType `json:"type"`
	RawType                string    `json:"raw_type"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
}

type NotificationParser interface {
	Provider() types.PaymentProvider
	// Configured reports whether credentials for signature verification exist.
	Configured() bool
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*ProviderEvent, error)
}
