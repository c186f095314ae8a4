package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "github.com/fatflowers/admeter/internal/models"
	cfgpkg "github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"

	redis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var ErrAnalyticsNotFound = errors.New("analytics not found")

var Module = fx.Options(
	fx.Provide(NewAnalyticsCache, New),
)

// AdAnalyticsView is the lifetime analytics record with engagement broken
// down by type.
type AdAnalyticsView struct {
	models.AdAnalytics
	EngagementByType map[string]int64 `json:"engagement_by_type"`
}

const analyticsKeyPrefix = "admeter:analytics:"

// AnalyticsCache is a read-through cache for lifetime analytics. A nil
// client turns every call into a miss.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnalyticsCache(cfg *cfgpkg.Config, client *redis.Client) *AnalyticsCache {
	ttl := time.Duration(cfg.Analytics.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AnalyticsCache{client: client, ttl: ttl}
}

func (c *AnalyticsCache) get(ctx context.Context, adID string) (*AdAnalyticsView, error) {
	if c == nil || c.client == nil {
		return nil, redis.Nil
	}
	raw, err := c.client.Get(ctx, analyticsKeyPrefix+adID).Bytes()
	if err != nil {
		return nil, err
	}
	var v AdAnalyticsView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("corrupt analytics cache entry: %w", err)
	}
	return &v, nil
}

func (c *AnalyticsCache) set(ctx context.Context, v *AdAnalyticsView) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, analyticsKeyPrefix+v.AdID, raw, c.ttl).Err()
}

// GetAdAnalytics serves the lifetime record through the cache. Cache errors
// are logged and the record is read from the database instead.
func (s *Service) GetAdAnalytics(ctx context.Context, adID string) (*AdAnalyticsView, error) {
	logger := logctx.FromCtx(ctx, s.log)

	v, err := s.cache.get(ctx, adID)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		logger.Warnw("analytics cache read failed, falling back to database", "ad_id", adID, "err", err)
	}

	v, err = s.loadAdAnalytics(ctx, adID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.set(ctx, v); err != nil {
		logger.Warnw("analytics cache write failed", "ad_id", adID, "err", err)
	}
	return v, nil
}

func (s *Service) loadAdAnalytics(ctx context.Context, adID string) (*AdAnalyticsView, error) {
	var a models.AdAnalytics
	if err := s.db.WithContext(ctx).Where("ad_id = ?", adID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	var counters []models.AdEngagementCounter
	if err := s.db.WithContext(ctx).Where("ad_id = ?", adID).Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("failed to get engagement counters: %w", err)
	}
	return &AdAnalyticsView{
		AdAnalytics: a,
		EngagementByType: lo.SliceToMap(counters, func(c models.AdEngagementCounter) (string, int64) {
			return c.EngagementType, c.Count
		}),
	}, nil
}
