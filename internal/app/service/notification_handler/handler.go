package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	notificationlog "github.com/fatflowers/admeter/internal/app/service/notification_log"
	"github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/internal/platform/apple/apple_iap"
	"github.com/fatflowers/admeter/internal/platform/apple/apple_notification"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/metrics"
	"github.com/fatflowers/admeter/pkg/tool"
	"github.com/fatflowers/admeter/pkg/types"
)

var Module = fx.Options(
	fx.Provide(NewNotificationHandler),
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

type HandleResult struct {
	Outcome Outcome        `json:"outcome"`
	Event   *ProviderEvent `json:"event,omitempty"`
	// SubscriptionID is set when the event changed a subscription.
	SubscriptionID string `json:"subscription_id,omitempty"`
}

type NotificationHandler struct {
	cfg      *config.Config
	db       *gorm.DB
	notifSvc *notificationlog.Service
	subSvc   *subscription.Service
	clock    clock.Clock
	Logger   *zap.SugaredLogger
	parsers  map[types.PaymentProvider]NotificationParser
}

func NewNotificationHandler(cfg *config.Config, db *gorm.DB, notif *notificationlog.Service, sub *subscription.Service, clk clock.Clock, log *zap.SugaredLogger) *NotificationHandler {
	return newNotificationHandler(cfg, db, notif, sub, clk, log,
		NewPayPalParser(cfg.Providers.PayPal, nil),
		NewStripeParser(cfg.Providers.Stripe),
		NewAppleParser(cfg.Providers.Apple, apple_notification.NewVerifier(), apple_iap.NewStoreClient(cfg.Providers.Apple)),
	)
}

func newNotificationHandler(cfg *config.Config, db *gorm.DB, notif *notificationlog.Service, sub *subscription.Service, clk clock.Clock, log *zap.SugaredLogger, parsers ...NotificationParser) *NotificationHandler {
	return &NotificationHandler{
		cfg:      cfg,
		db:       db,
		notifSvc: notif,
		subSvc:   sub,
		clock:    clk,
		Logger:   log,
		parsers: lo.SliceToMap(parsers, func(p NotificationParser) (types.PaymentProvider, NotificationParser) {
			return p.Provider(), p
		}),
	}
}

// HandleNotification authenticates a provider delivery, records its event id
// and applies its effect on the subscription. A delivery whose id was seen
// before is acknowledged without any further mutation.
func (h *NotificationHandler) HandleNotification(ctx context.Context, provider types.PaymentProvider, payload []byte, headers http.Header) (res *HandleResult, resErr error) {
	start := time.Now()
	log := logctx.FromCtx(ctx, h.Logger).With("provider", provider)
	res = &HandleResult{Outcome: OutcomeRejected}

	parser, ok := h.parsers[provider]
	if !ok {
		metrics.ObserveWebhookEvent(string(provider), string(OutcomeRejected))
		return res, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	h.saveLog(ctx, provider, payload, nil, models.PaymentNotificationLogStatusReceived, nil)
	defer func() {
		status := models.PaymentNotificationLogStatusHandled
		switch res.Outcome {
		case OutcomeRejected:
			status = models.PaymentNotificationLogStatusRejected
		case OutcomeDuplicate:
			status = models.PaymentNotificationLogStatusDuplicate
		case OutcomeFailed:
			status = models.PaymentNotificationLogStatusHandleFailed
		}
		h.saveLog(ctx, provider, payload, res, status, resErr)
		metrics.ObserveWebhookEvent(string(provider), string(res.Outcome))
		metrics.ObserveBusinessProcess("webhook", string(provider), start)
	}()

	if err := h.authenticate(ctx, parser, payload, headers); err != nil {
		log.Warnw("webhook rejected", "security_event", true, "error", err)
		return res, err
	}

	ev, err := parser.Parse(ctx, payload)
	if err != nil {
		log.Warnw("failed to parse webhook", "error", err)
		if !errors.Is(err, ErrMalformedEvent) {
			err = fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return res, err
	}
	res.Event = ev
	log = log.With("event_id", ev.ID, "event_type", ev.RawType)

	fresh, err := h.markProcessed(ctx, provider, ev)
	if err != nil {
		res.Outcome = OutcomeFailed
		log.Errorw("failed to record webhook event", "error", err)
		return res, err
	}
	if !fresh {
		res.Outcome = OutcomeDuplicate
		log.Infow("duplicate webhook delivery ignored")
		return res, nil
	}

	sub, err := h.apply(ctx, provider, ev)
	if err != nil {
		res.Outcome = OutcomeFailed
		log.Errorw("failed to apply webhook event", "error", err)
		return res, err
	}
	res.Outcome = OutcomeProcessed
	if sub != nil {
		res.SubscriptionID = sub.ID
	}
	log.Infow("webhook processed", "type", ev.Type, "subscription_id", res.SubscriptionID)
	return res, nil
}

func (h *NotificationHandler) authenticate(ctx context.Context, parser NotificationParser, payload []byte, headers http.Header) error {
	if !parser.Configured() {
		if h.cfg.IsProd() {
			return fmt.Errorf("%w: %s", ErrMissingCredentials, parser.Provider())
		}
		logctx.FromCtx(ctx, h.Logger).Warnw("webhook signature verification bypassed, no credentials configured",
			"provider", parser.Provider())
		return nil
	}
	if err := parser.Verify(ctx, payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// markProcessed inserts the event id before any effect. It reports false when
// another delivery already recorded the same id.
func (h *NotificationHandler) markProcessed(ctx context.Context, provider types.PaymentProvider, ev *ProviderEvent) (bool, error) {
	record := &models.WebhookEvent{
		ID:              tool.GenerateUUIDV7(),
		Provider:        string(provider),
		ProviderEventID: ev.ID,
		EventType:       ev.RawType,
		ReceivedAt:      h.clock.Now(),
	}
	tx := h.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if tx.Error != nil {
		return false, fmt.Errorf("failed to insert webhook event: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

func (h *NotificationHandler) apply(ctx context.Context, provider types.PaymentProvider, ev *ProviderEvent) (*models.Subscription, error) {
	if ev.Type == EventTypeIgnored {
		return nil, nil
	}
	sub, err := h.subSvc.GetByProviderSubscriptionID(ctx, ev.ProviderSubscriptionID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			logctx.FromCtx(ctx, h.Logger).Warnw("no subscription for provider event",
				"provider", provider, "provider_subscription_id", ev.ProviderSubscriptionID)
			return nil, nil
		}
		return nil, err
	}

	extra := map[string]any{
		"provider":          string(provider),
		"provider_event_id": ev.ID,
		"event_type":        ev.RawType,
	}
	switch ev.Type {
	case EventTypePaymentSucceeded:
		return h.subSvc.ApplyRenewal(ctx, sub.ID, extra)
	case EventTypeCancelled:
		return h.subSvc.SetStatus(ctx, sub.ID, types.SubscriptionStatusCancelled, types.SubscriptionChangeReasonCancel, extra)
	case EventTypeExpired:
		return h.subSvc.SetStatus(ctx, sub.ID, types.SubscriptionStatusExpired, types.SubscriptionChangeReasonExpire, extra)
	}
	return nil, nil
}

func (h *NotificationHandler) saveLog(ctx context.Context, provider types.PaymentProvider, payload []byte, res *HandleResult, status models.PaymentNotificationLogStatus, handleErr error) {
	entry := &models.PaymentNotificationLog{
		ProviderID:       string(provider),
		NotificationTime: h.clock.Now(),
		Status:           status,
	}
	if json.Valid(payload) {
		entry.Data = datatypes.JSON(payload)
	} else {
		data, _ := json.Marshal(map[string]string{"raw": string(payload)})
		entry.Data = datatypes.JSON(data)
	}
	if res != nil {
		if res.Event != nil {
			entry.ProviderEventID = res.Event.ID
			entry.EventType = res.Event.RawType
			if res.Event.ProviderSubscriptionID != "" {
				entry.ProviderSubscriptionID = lo.ToPtr(res.Event.ProviderSubscriptionID)
			}
		}
		resMap := map[string]any{"outcome": res.Outcome, "subscription_id": res.SubscriptionID}
		if handleErr != nil {
			resMap["error"] = handleErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		entry.Result = lo.ToPtr(datatypes.JSON(resBytes))
	}
	h.notifSvc.Save(ctx, entry)
}
