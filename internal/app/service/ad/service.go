package ad

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatflowers/admeter/internal/app/service/quota"
	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/clock"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/tool"
	types "github.com/fatflowers/admeter/pkg/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAdNotFound        = errors.New("ad not found")
	ErrInvalidTransition = errors.New("invalid ad status transition")
)

var Module = fx.Options(
	fx.Provide(NewService),
)

type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	clock clock.Clock
	quota *quota.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, clk clock.Clock, q *quota.Service) *Service {
	return &Service{db: db, log: log, clock: clk, quota: q}
}

type CreateAdRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	Title     string `json:"title" binding:"required"`
	TargetURL string `json:"target_url"`
}

// Result carries either the ad after the operation or the quota decision that blocked it.
type Result struct {
	Ad    *models.Ad         `json:"ad,omitempty"`
	Quota *quota.Reservation `json:"quota,omitempty"`
}

func (r *Result) Denied() bool {
	return r != nil && r.Quota != nil && !r.Quota.Granted
}

// CreateAd reserves one ad slot and inserts the ad with its zeroed analytics
// record. If the insert fails the slot is released again.
func (s *Service) CreateAd(ctx context.Context, req *CreateAdRequest) (*Result, error) {
	if req == nil || req.OwnerID == "" || req.Title == "" {
		return nil, fmt.Errorf("invalid params: owner_id and title required")
	}
	logger := logctx.FromCtx(ctx, s.log)

	capacity, err := s.quota.CheckActiveAdCapacity(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !capacity.Granted {
		logger.Infow("ad creation denied", "owner_id", req.OwnerID, "reason", capacity.Reason)
		return &Result{Quota: capacity}, nil
	}

	reservation, err := s.quota.ReserveAdSlot(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !reservation.Granted {
		logger.Infow("ad creation denied", "owner_id", req.OwnerID, "reason", reservation.Reason)
		return &Result{Quota: reservation}, nil
	}

	sub := reservation.Subscription
	now := s.clock.Now()
	ad := &models.Ad{
		ID:             tool.GenerateUUIDV7(),
		OwnerID:        req.OwnerID,
		OwnerType:      sub.OwnerType,
		SubscriptionID: sub.ID,
		Title:          req.Title,
		TargetURL:      req.TargetURL,
		Status:         types.AdStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ad).Error; err != nil {
			return err
		}
		return tx.Create(&models.AdAnalytics{AdID: ad.ID, OwnerID: ad.OwnerID, LastUpdated: now}).Error
	})
	if err != nil {
		logger.Warnw("ad insert failed after reservation, releasing slot", "subscription_id", sub.ID, "error", err)
		if rerr := s.quota.ReleaseAdSlot(context.WithoutCancel(ctx), sub.ID); rerr != nil {
			logger.Errorw("failed to release ad slot", "subscription_id", sub.ID, "error", rerr)
		}
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}

	logger.Infow("ad created", "ad_id", ad.ID, "owner_id", ad.OwnerID, "subscription_id", sub.ID)
	return &Result{Ad: ad, Quota: reservation}, nil
}

// ActivateAd moves an inactive ad back to active after re-checking the
// owner's active-ad cap. The count and the update are separate statements.
func (s *Service) ActivateAd(ctx context.Context, adID string) (*Result, error) {
	ad, err := s.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	switch ad.Status {
	case types.AdStatusActive:
		return &Result{Ad: ad}, nil
	case types.AdStatusInactive:
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ad.Status, types.AdStatusActive)
	}

	capacity, err := s.quota.CheckActiveAdCapacity(ctx, ad.OwnerID)
	if err != nil {
		return nil, err
	}
	if !capacity.Granted {
		logctx.FromCtx(ctx, s.log).Infow("ad activation denied", "ad_id", ad.ID, "reason", capacity.Reason)
		return &Result{Ad: ad, Quota: capacity}, nil
	}

	if err := s.setStatus(ctx, ad, types.AdStatusInactive, types.AdStatusActive); err != nil {
		return nil, err
	}
	return &Result{Ad: ad, Quota: capacity}, nil
}

// DeactivateAd marks an active ad inactive. The ad slot is not refunded.
func (s *Service) DeactivateAd(ctx context.Context, adID string) (*Result, error) {
	ad, err := s.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	switch ad.Status {
	case types.AdStatusInactive:
		return &Result{Ad: ad}, nil
	case types.AdStatusActive:
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ad.Status, types.AdStatusInactive)
	}
	if err := s.setStatus(ctx, ad, types.AdStatusActive, types.AdStatusInactive); err != nil {
		return nil, err
	}
	return &Result{Ad: ad}, nil
}

func (s *Service) GetAd(ctx context.Context, adID string) (*models.Ad, error) {
	var ad models.Ad
	if err := s.db.WithContext(ctx).Where("id = ?", adID).First(&ad).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return &ad, nil
}

func (s *Service) setStatus(ctx context.Context, ad *models.Ad, from, to types.AdStatus) error {
	now := s.clock.Now()
	res := s.db.WithContext(ctx).Model(&models.Ad{}).
		Where("id = ? AND status = ?", ad.ID, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to update ad status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ad %s is no longer %s", ErrInvalidTransition, ad.ID, from)
	}
	ad.Status = to
	ad.UpdatedAt = now
	logctx.FromCtx(ctx, s.log).Infow("ad status changed", "ad_id", ad.ID, "from", from, "to", to)
	return nil
}
