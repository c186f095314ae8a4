package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/awa/go-iap/appstore/api"

	"github.com/fatflowers/admeter/internal/platform/apple/apple_iap"
	"github.com/fatflowers/admeter/internal/platform/apple/apple_notification"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/types"
)

// https://developer.apple.com/documentation/appstoreservernotifications/notificationtype
const (
	appleSubscribed               = "SUBSCRIBED"
	appleDidRenew                 = "DID_RENEW"
	appleExpired                  = "EXPIRED"
	appleGracePeriodExpired       = "GRACE_PERIOD_EXPIRED"
	appleRefund                   = "REFUND"
	appleRevoke                   = "REVOKE"
	appleDidChangeRenewalStatus   = "DID_CHANGE_RENEWAL_STATUS"
	appleSubtypeAutoRenewDisabled = "AUTO_RENEW_DISABLED"
)

type AppleParser struct {
	cfg      config.AppleConfig
	verifier *apple_notification.Verifier
	store    *api.StoreClient
}

// NewAppleParser builds the App Store parser. store may be nil, in which case
// transaction info is decoded from the already verified notification.
func NewAppleParser(cfg config.AppleConfig, verifier *apple_notification.Verifier, store *api.StoreClient) *AppleParser {
	if verifier == nil {
		verifier = apple_notification.NewVerifier()
	}
	return &AppleParser{cfg: cfg, verifier: verifier, store: store}
}

func (p *AppleParser) Provider() types.PaymentProvider { return types.PaymentProviderApple }

func (p *AppleParser) Configured() bool { return p.cfg.BundleID != "" }

func (p *AppleParser) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	signed, err := signedPayload(payload)
	if err != nil {
		return err
	}
	notification, err := p.verifier.Verify(signed)
	if err != nil {
		return err
	}
	if notification.Data.BundleID != p.cfg.BundleID {
		return fmt.Errorf("unexpected bundle id %q", notification.Data.BundleID)
	}
	return nil
}

func (p *AppleParser) Parse(ctx context.Context, payload []byte) (*ProviderEvent, error) {
	signed, err := signedPayload(payload)
	if err != nil {
		return nil, err
	}
	var notification apple_notification.NotificationPayload
	if err := apple_notification.DecodeUnverified(signed, &notification); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if notification.NotificationUUID == "" {
		return nil, fmt.Errorf("%w: missing notificationUUID", ErrMalformedEvent)
	}

	ev := &ProviderEvent{
		ID:      notification.NotificationUUID,
		RawType: notification.NotificationType,
		Type:    appleEventType(notification.NotificationType, notification.Subtype),
	}
	if notification.Subtype != "" {
		ev.RawType += ":" + notification.Subtype
	}
	if ev.Type == EventTypeIgnored {
		return ev, nil
	}

	ev.ProviderSubscriptionID, err = p.originalTransactionID(notification.Data.SignedTransactionInfo)
	if err != nil {
		return nil, err
	}
	if ev.ProviderSubscriptionID == "" {
		ev.Type = EventTypeIgnored
	}
	return ev, nil
}

func (p *AppleParser) originalTransactionID(signedTransaction string) (string, error) {
	if signedTransaction == "" {
		return "", nil
	}
	if p.store != nil {
		id, err := apple_iap.OriginalTransactionID(p.store, signedTransaction)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return id, nil
	}
	var info apple_notification.TransactionInfo
	if err := apple_notification.DecodeUnverified(signedTransaction, &info); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if info.OriginalTransactionID != "" {
		return info.OriginalTransactionID, nil
	}
	return info.TransactionID, nil
}

func appleEventType(notificationType, subtype string) EventType {
	switch notificationType {
	case appleSubscribed, appleDidRenew:
		return EventTypePaymentSucceeded
	case appleExpired, appleGracePeriodExpired:
		return EventTypeExpired
	case appleRefund, appleRevoke:
		return EventTypeCancelled
	case appleDidChangeRenewalStatus:
		if subtype == appleSubtypeAutoRenewDisabled {
			return EventTypeCancelled
		}
	}
	return EventTypeIgnored
}

func signedPayload(payload []byte) (string, error) {
	var req apple_notification.AppStoreServerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if req.SignedPayload == "" {
		return "", fmt.Errorf("%w: empty signedPayload", ErrMalformedEvent)
	}
	return req.SignedPayload, nil
}
