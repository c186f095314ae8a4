package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatflowers/admeter/internal/app/service/billingperiod"
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

// maxReserveAttempts bounds how often a reservation is re-evaluated after its
// conditional write matched nothing.
const maxReserveAttempts = 3

var Module = fx.Options(
	fx.Provide(NewService),
)

// Reservation is the outcome of a quota check. Denials are values, not errors.
type Reservation struct {
	Granted      bool                  `json:"granted"`
	Reason       types.QuotaDenyReason `json:"reason,omitempty"`
	Limit        int64                 `json:"limit"`
	Current      int64                 `json:"current"`
	Subscription *models.Subscription  `json:"subscription,omitempty"`
}

func granted(sub *models.Subscription) *Reservation {
	return &Reservation{Granted: true, Limit: sub.AdLimit, Current: sub.AdsUsed, Subscription: sub}
}

func denied(reason types.QuotaDenyReason, limit, current int64, sub *models.Subscription) *Reservation {
	return &Reservation{Reason: reason, Limit: limit, Current: current, Subscription: sub}
}

type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *zap.SugaredLogger
	clock   clock.Clock
	subs    *subscription.Service
	periods *billingperiod.Manager
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock, subs *subscription.Service, periods *billingperiod.Manager) *Service {
	return &Service{cfg: cfg, db: db, log: log, clock: clk, subs: subs, periods: periods}
}

// ReserveAdSlot loads the owner's subscription and reserves one ad slot on it.
func (s *Service) ReserveAdSlot(ctx context.Context, ownerID string) (*Reservation, error) {
	sub, err := s.subs.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			s.observe("reserve_ad_slot", denied(types.QuotaDenyReasonNoSubscription, 0, 0, nil))
			return denied(types.QuotaDenyReasonNoSubscription, 0, 0, nil), nil
		}
		return nil, err
	}
	return s.Reserve(ctx, sub)
}

// Reserve atomically increments ads_used on sub. The write only matches while
// the stored row is still active, under its limit and on the window the
// caller observed, so a lost race or a rollover in between yields zero rows
// and the reservation is re-evaluated from fresh state.
func (s *Service) Reserve(ctx context.Context, sub *models.Subscription) (*Reservation, error) {
	start := time.Now()
	defer metrics.ObserveBusinessProcess("quota", "reserve_ad_slot", start)

	var (
		ok  bool
		err error
	)
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		sub, err = s.periods.EnsureCurrentPeriod(ctx, sub)
		if err != nil {
			return nil, err
		}
		if r := s.precheck(sub); r != nil {
			s.observe("reserve_ad_slot", r)
			return r, nil
		}

		ok, err = s.tryReserve(ctx, sub)
		if err != nil {
			return nil, err
		}
		if ok {
			reserved := *sub
			reserved.AdsUsed++
			r := granted(&reserved)
			s.observe("reserve_ad_slot", r)
			return r, nil
		}

		logctx.FromCtx(ctx, s.log).Debugw("ad slot reservation lost its guard, re-reading",
			"subscription_id", sub.ID, "attempt", attempt+1, "observed_period_end", sub.PeriodEnd)
		if sub, err = s.subs.GetByID(ctx, sub.ID); err != nil {
			return nil, err
		}
	}

	r := s.precheck(sub)
	if r == nil {
		logctx.FromCtx(ctx, s.log).Warnw("ad slot reservation kept losing to concurrent writes",
			"subscription_id", sub.ID, "attempts", maxReserveAttempts, "ads_used", sub.AdsUsed, "ad_limit", sub.AdLimit)
		r = denied(types.QuotaDenyReasonContention, sub.AdLimit, sub.AdsUsed, sub)
	}
	s.observe("reserve_ad_slot", r)
	return r, nil
}

// precheck evaluates the reservation preconditions against a period-ensured
// snapshot. It returns nil when a write may be attempted.
func (s *Service) precheck(sub *models.Subscription) *Reservation {
	nowMs := s.clock.Now().UnixMilli()
	switch {
	case sub.Status != types.SubscriptionStatusActive:
		return denied(types.QuotaDenyReasonSubscriptionInactive, sub.AdLimit, sub.AdsUsed, sub)
	case sub.Ended(nowMs):
		return denied(types.QuotaDenyReasonSubscriptionEnded, sub.AdLimit, sub.AdsUsed, sub)
	case sub.AdsUsed >= sub.AdLimit:
		return denied(types.QuotaDenyReasonAdLimitReached, sub.AdLimit, sub.AdsUsed, sub)
	case sub.ImpressionsUsed >= sub.ImpressionLimit:
		return denied(types.QuotaDenyReasonImpressionLimitReached, sub.ImpressionLimit, sub.ImpressionsUsed, sub)
	}
	return nil
}

func (s *Service) tryReserve(ctx context.Context, sub *models.Subscription) (bool, error) {
	nowMs := s.clock.Now().UnixMilli()
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND status = ? AND ads_used < ad_limit", sub.ID, types.SubscriptionStatusActive).
		Where("period_end = ? AND period_end > ?", sub.PeriodEnd, nowMs).
		Where("end_date IS NULL OR end_date > ?", nowMs).
		Updates(map[string]any{
			"ads_used":   gorm.Expr("ads_used + 1"),
			"updated_at": s.clock.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reserve ad slot: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseAdSlot is the compensating decrement for a reservation whose
// downstream write failed. A failure to apply it is dead-lettered and returned.
func (s *Service) ReleaseAdSlot(ctx context.Context, subscriptionID string) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND ads_used > 0", subscriptionID).
		Updates(map[string]any{
			"ads_used":   gorm.Expr("ads_used - 1"),
			"updated_at": s.clock.Now(),
		})
	if res.Error != nil {
		s.deadLetter(ctx, models.CompensationOperationReleaseAdSlot, subscriptionID, res.Error, nil)
		return fmt.Errorf("failed to release ad slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Warnw("release ad slot matched nothing", "subscription_id", subscriptionID)
	}
	return nil
}

// CheckActiveAdCapacity counts the owner's active ads against the plan's
// active-ads cap. This is a plain read; callers writing afterwards may race.
func (s *Service) CheckActiveAdCapacity(ctx context.Context, ownerID string) (*Reservation, error) {
	sub, err := s.subs.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			r := denied(types.QuotaDenyReasonNoSubscription, 0, 0, nil)
			s.observe("check_active_capacity", r)
			return r, nil
		}
		return nil, err
	}
	plan := s.cfg.GetPlanByID(sub.PackageID)
	if plan == nil {
		return nil, fmt.Errorf("%w: %s", subscription.ErrPlanNotFound, sub.PackageID)
	}

	var active int64
	if err := s.db.WithContext(ctx).Model(&models.Ad{}).
		Where("owner_id = ? AND status = ?", ownerID, types.AdStatusActive).
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active ads: %w", err)
	}

	r := &Reservation{Granted: true, Limit: plan.ActiveAdsLimit, Current: active, Subscription: sub}
	if active >= plan.ActiveAdsLimit {
		r = denied(types.QuotaDenyReasonActiveAdLimitReached, plan.ActiveAdsLimit, active, sub)
	}
	s.observe("check_active_capacity", r)
	return r, nil
}

func (s *Service) observe(operation string, r *Reservation) {
	outcome := "granted"
	if !r.Granted {
		outcome = "denied"
	}
	metrics.ObserveQuotaDecision(operation, outcome, string(r.Reason))
}
