package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/tool"
	types "github.com/fatflowers/admeter/pkg/types"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrPlanNotFound             = errors.New("plan not found")
	ErrActiveSubscriptionExists = errors.New("owner already has an active subscription")
)

// Service is the subscription store. It holds no quota logic of its own.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	log   *zap.SugaredLogger
	clock clock.Clock
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock) *Service {
	return &Service{cfg: cfg, db: db, log: log, clock: clk}
}

type CreateSubscriptionRequest struct {
	OwnerID   string          `json:"owner_id" binding:"required"`
	OwnerType types.OwnerType `json:"owner_type" binding:"required"`
	// PackageID is a plan id, or the provider's plan id when Provider is set.
	PackageID              string                 `json:"package_id" binding:"required"`
	Provider               *types.PaymentProvider `json:"provider"`
	ProviderSubscriptionID *string                `json:"provider_subscription_id"`
	// EndDate in epoch milliseconds, only for fixed-term plans.
	EndDate *int64 `json:"end_date"`
}

// Create opens a subscription on purchase with the first usage window starting now.
func (s *Service) Create(ctx context.Context, req *CreateSubscriptionRequest) (*models.Subscription, error) {
	if req == nil || req.OwnerID == "" {
		return nil, fmt.Errorf("invalid params: owner_id required")
	}
	if !req.OwnerType.Valid() {
		return nil, fmt.Errorf("invalid owner type: %s", req.OwnerType)
	}
	plan, err := s.resolvePlan(req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sub := &models.Subscription{
		ID:                     tool.GenerateUUIDV7(),
		OwnerID:                req.OwnerID,
		OwnerType:              req.OwnerType,
		Provider:               req.Provider,
		ProviderSubscriptionID: req.ProviderSubscriptionID,
		PackageID:              plan.ID,
		AdLimit:                plan.AdLimit,
		ImpressionLimit:        plan.ImpressionLimit,
		PeriodStart:            now.UnixMilli(),
		PeriodEnd:              now.Add(s.cfg.BillingPeriod()).UnixMilli(),
		Status:                 types.SubscriptionStatusActive,
		EndDate:                req.EndDate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subscription{}).
			Where("owner_id = ? AND status = ?", req.OwnerID, types.SubscriptionStatusActive).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if count > 0 {
			return ErrActiveSubscriptionExists
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		return nil, s.activeConflict(ctx, req.OwnerID, err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription created", "subscription_id", sub.ID, "owner_id", sub.OwnerID, "package_id", sub.PackageID)
	s.SaveLog(ctx, nil, sub, types.SubscriptionChangeReasonPurchase, nil)
	return sub, nil
}

func (s *Service) resolvePlan(req *CreateSubscriptionRequest) (*types.Plan, error) {
	if plan := s.cfg.GetPlanByID(req.PackageID); plan != nil {
		return plan, nil
	}
	if req.Provider != nil {
		if plan, err := s.cfg.GetPlanByProviderPlanID(*req.Provider, req.PackageID); err == nil {
			return plan, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PackageID)
}

// activeConflict reports ErrActiveSubscriptionExists when err came from a
// write that lost the owner's single active slot to another writer.
func (s *Service) activeConflict(ctx context.Context, ownerID string, err error) error {
	if errors.Is(err, ErrActiveSubscriptionExists) {
		return err
	}
	var count int64
	if cErr := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("owner_id = ? AND status = ?", ownerID, types.SubscriptionStatusActive).
		Count(&count).Error; cErr == nil && count > 0 {
		return ErrActiveSubscriptionExists
	}
	return err
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// GetByOwner returns the owner's active subscription, or the most recent one
// when none is active.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(fmt.Sprintf("CASE WHEN status = '%s' THEN 0 ELSE 1 END", types.SubscriptionStatusActive)).
		Order("created_at desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by owner: %w", err)
	}
	return &sub, nil
}

func (s *Service) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Order("created_at desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by provider id: %w", err)
	}
	return &sub, nil
}

// ApplyRenewal resets both usage counters and reactivates the subscription.
// It is driven by the provider's billing clock and is independent of the
// time-based rollover.
func (s *Service) ApplyRenewal(ctx context.Context, id string, extra map[string]any) (*models.Subscription, error) {
	return s.update(ctx, id, types.SubscriptionChangeReasonRenewal, extra, map[string]any{
		"ads_used":         0,
		"impressions_used": 0,
		"status":           types.SubscriptionStatusActive,
	})
}

// SetStatus transitions the subscription lifecycle status.
func (s *Service) SetStatus(ctx context.Context, id string, status types.SubscriptionStatus, reason types.SubscriptionChangeReason, extra map[string]any) (*models.Subscription, error) {
	return s.update(ctx, id, reason, extra, map[string]any{"status": status})
}

func (s *Service) update(ctx context.Context, id string, reason types.SubscriptionChangeReason, extra map[string]any, values map[string]any) (*models.Subscription, error) {
	before, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	values["updated_at"] = s.clock.Now()
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		if values["status"] == types.SubscriptionStatusActive && before.Status != types.SubscriptionStatusActive {
			if err := s.activeConflict(ctx, before.OwnerID, res.Error); errors.Is(err, ErrActiveSubscriptionExists) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("failed to update subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrSubscriptionNotFound
	}
	after, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.SaveLog(ctx, before, after, reason, extra)
	return after, nil
}

// SaveLog asynchronously writes a change log row; errors are logged but not returned.
func (s *Service) SaveLog(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason, extra map[string]any) {
	if after == nil {
		return
	}
	go func(b, a models.Subscription, hasBefore bool) {
		entry := &models.SubscriptionLog{
			ID:             tool.GenerateUUIDV7(),
			SubscriptionID: a.ID,
			OwnerID:        a.OwnerID,
			Reason:         reason,
			After:          datatypes.NewJSONType(&a),
			Extra:          datatypes.JSONMap(extra),
			CreatedAt:      time.Now(),
		}
		if hasBefore {
			entry.Before = datatypes.NewJSONType(&b)
		}
		if entry.Extra == nil {
			entry.Extra = datatypes.JSONMap{}
		}
		if err := s.db.Create(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}(derefOrZero(before), *after, before != nil)
}

func derefOrZero(sub *models.Subscription) models.Subscription {
	if sub == nil {
		return models.Subscription{}
	}
	return *sub
}
