package billingperiod

import (
	"context"
	"fmt"

	"github.com/fatflowers/admeter/internal/app/service/subscription"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
	types "github.com/fatflowers/admeter/pkg/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager rolls a subscription's usage window forward once it has elapsed.
type Manager struct {
	cfg   *config.Config
	db    *gorm.DB
	log   *zap.SugaredLogger
	clock clock.Clock
	subs  *subscription.Service
}

func NewManager(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock, subs *subscription.Service) *Manager {
	return &Manager{cfg: cfg, db: db, log: log, clock: clk, subs: subs}
}

var Module = fx.Options(
	fx.Provide(NewManager),
)

// EnsureCurrentPeriod returns sub unchanged while now < PeriodEnd. Otherwise it
// starts a new window at now and zeroes both usage counters, guarded by a
// compare-and-swap on the PeriodEnd the caller observed. A caller that loses
// the swap re-reads and returns the stored state, so at most one reset happens
// per period no matter how many callers race.
func (m *Manager) EnsureCurrentPeriod(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if sub == nil {
		return nil, fmt.Errorf("nil subscription")
	}
	now := m.clock.Now()
	nowMs := now.UnixMilli()
	if nowMs < sub.PeriodEnd {
		return sub, nil
	}

	observed := sub.PeriodEnd
	newStart := nowMs
	newEnd := now.Add(m.cfg.BillingPeriod()).UnixMilli()

	res := m.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND period_end = ?", sub.ID, observed).
		Updates(map[string]any{
			"period_start":     newStart,
			"period_end":       newEnd,
			"ads_used":         0,
			"impressions_used": 0,
			"updated_at":       now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to roll over subscription %s: %w", sub.ID, res.Error)
	}

	current, err := m.subs.GetByID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, m.log).Debugw("rollover already applied by another caller", "subscription_id", sub.ID, "observed_period_end", observed)
		return current, nil
	}

	logctx.FromCtx(ctx, m.log).Infow("subscription period rolled over",
		"subscription_id", sub.ID,
		"period_start", newStart,
		"period_end", newEnd,
	)
	m.subs.SaveLog(ctx, sub, current, types.SubscriptionChangeReasonRollover, map[string]any{"observed_period_end": observed})
	return current, nil
}
