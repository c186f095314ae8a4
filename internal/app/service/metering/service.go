package metering

import (
	"context"
	"errors"
	"fmt"
	"time"

	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/billingperiod"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/metrics"
	types "github.com/fatflowers/admeter/pkg/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidEvent = errors.New("invalid event")

var Module = fx.Options(
	fx.Provide(NewLedger, NewService),
	fx.Invoke(registerSweeper),
)

type RecordEventRequest struct {
	AdID      string          `json:"ad_id"`
	EventType types.EventType `json:"event_type"`
	// EngagementType is required for engagement events, e.g. "share" or "video_complete".
	EngagementType string `json:"engagement_type"`
	Fingerprint    string `json:"fingerprint"`
}

// RecordEventResult reports the outcome; Limit and Current are the
// subscription's impression quota and are only set for impressions.
type RecordEventResult struct {
	Outcome types.EventOutcome `json:"outcome"`
	Limit   int64              `json:"limit,omitempty"`
	Current int64              `json:"current,omitempty"`
}

type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *zap.SugaredLogger
	clock   clock.Clock
	ledger  *Ledger
	ads     *adsvc.Service
	subs    *subscription.Service
	periods *billingperiod.Manager
	quota   *quota.Service
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock, ledger *Ledger, ads *adsvc.Service, subs *subscription.Service, periods *billingperiod.Manager, q *quota.Service) *Service {
	return &Service{cfg: cfg, db: db, log: log, clock: clk, ledger: ledger, ads: ads, subs: subs, periods: periods, quota: q}
}

func (r *RecordEventRequest) validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil request", ErrInvalidEvent)
	case r.AdID == "":
		return fmt.Errorf("%w: ad_id required", ErrInvalidEvent)
	case !r.EventType.Valid():
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, r.EventType)
	case r.Fingerprint == "":
		return fmt.Errorf("%w: fingerprint required", ErrInvalidEvent)
	case r.EventType == types.EventTypeEngagement && r.EngagementType == "":
		return fmt.Errorf("%w: engagement_type required", ErrInvalidEvent)
	}
	return nil
}

// RecordEvent admits at most one event per ad, type and viewer per UTC day
// and folds it into the ad's analytics. Impressions are additionally metered
// against the owner's impression quota before admission.
func (s *Service) RecordEvent(ctx context.Context, req *RecordEventRequest) (res *RecordEventResult, err error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.ObserveBusinessProcess("metering", string(req.EventType), start)
		if res != nil {
			metrics.ObserveTrackedEvent(string(req.EventType), string(res.Outcome))
		}
	}()

	logger := logctx.FromCtx(ctx, s.log)
	ad, err := s.ads.GetAd(ctx, req.AdID)
	if err != nil {
		return nil, err
	}
	if ad.Status != types.AdStatusActive {
		logger.Debugw("event on non-active ad ignored", "ad_id", ad.ID, "status", ad.Status, "event_type", req.EventType)
		return &RecordEventResult{Outcome: types.EventOutcomeIgnored}, nil
	}

	now := s.clock.Now()
	ev := &admittedEvent{Ad: ad, EventType: req.EventType, EngagementType: req.EngagementType, At: now}

	var sub *models.Subscription
	if req.EventType == types.EventTypeImpression {
		var gate *RecordEventResult
		sub, gate, err = s.impressionGate(ctx, ad)
		if err != nil || gate != nil {
			return gate, err
		}
		ev.Spend = s.cfg.GetPlanByID(sub.PackageID).CostPerImpression()
	}

	entry, admitted, err := s.ledger.Admit(ctx, ad.ID, ledgerEventType(req.EventType, req.EngagementType), req.Fingerprint, now)
	if err != nil {
		return nil, err
	}
	if !admitted {
		return &RecordEventResult{Outcome: types.EventOutcomeDeduped}, nil
	}

	result := &RecordEventResult{Outcome: types.EventOutcomeTracked}
	if sub != nil {
		metered, err := s.meterImpression(ctx, sub)
		if err != nil || !metered {
			if rerr := s.ledger.Release(context.WithoutCancel(ctx), entry); rerr != nil {
				logger.Errorw("failed to release dedup entry", "ad_id", ad.ID, "error", rerr)
			}
			if err != nil {
				return nil, err
			}
			fresh, gerr := s.subs.GetByID(ctx, sub.ID)
			if gerr != nil {
				return nil, gerr
			}
			return &RecordEventResult{Outcome: types.EventOutcomeLimitReached, Limit: fresh.ImpressionLimit, Current: fresh.ImpressionsUsed}, nil
		}
		result.Limit, result.Current = sub.ImpressionLimit, sub.ImpressionsUsed+1
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return aggregate(tx, ev)
	}); err != nil {
		s.compensate(ctx, entry, sub, err)
		return nil, err
	}
	return result, nil
}

// impressionGate returns a non-nil result when the impression must not be admitted.
func (s *Service) impressionGate(ctx context.Context, ad *models.Ad) (*models.Subscription, *RecordEventResult, error) {
	sub, err := s.subs.GetByOwner(ctx, ad.OwnerID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, &RecordEventResult{Outcome: types.EventOutcomeLimitReached}, nil
		}
		return nil, nil, err
	}
	if sub, err = s.periods.EnsureCurrentPeriod(ctx, sub); err != nil {
		return nil, nil, err
	}
	if !sub.Usable(s.clock.Now().UnixMilli()) || sub.ImpressionsUsed >= sub.ImpressionLimit {
		return nil, &RecordEventResult{Outcome: types.EventOutcomeLimitReached, Limit: sub.ImpressionLimit, Current: sub.ImpressionsUsed}, nil
	}
	if s.cfg.GetPlanByID(sub.PackageID) == nil {
		return nil, nil, fmt.Errorf("%w: %s", subscription.ErrPlanNotFound, sub.PackageID)
	}
	return sub, nil, nil
}

// meterImpression consumes one unit of impression quota. It reports false
// when the quota ran out between the gate and the write.
func (s *Service) meterImpression(ctx context.Context, sub *models.Subscription) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND impressions_used < impression_limit", sub.ID).
		Updates(map[string]any{
			"impressions_used": gorm.Expr("impressions_used + 1"),
			"updated_at":       s.clock.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to meter impression: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// compensate undoes the ledger entry and, for impressions, the metered unit
// after aggregation failed.
func (s *Service) compensate(ctx context.Context, entry *models.EventDedupEntry, sub *models.Subscription, cause error) {
	ctx = context.WithoutCancel(ctx)
	logger := logctx.FromCtx(ctx, s.log)
	logger.Warnw("aggregation failed after admission, compensating", "target_id", entry.TargetID, "event_type", entry.EventType, "error", cause)

	if err := s.ledger.Release(ctx, entry); err != nil {
		logger.Errorw("failed to release dedup entry", "target_id", entry.TargetID, "error", err)
	}
	if sub == nil {
		return
	}
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND impressions_used > 0", sub.ID).
		Update("impressions_used", gorm.Expr("impressions_used - 1"))
	if res.Error != nil {
		s.quota.RecordCompensationFailure(ctx, models.CompensationOperationReleaseImpression, sub.ID, res.Error,
			map[string]any{"ad_id": entry.TargetID, "cause": cause.Error()})
	}
}
