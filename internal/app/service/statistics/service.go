package statistics

import (
	"context"
	"fmt"
	"sync"

	models "github.com/fatflowers/admeter/internal/models"
	types "github.com/fatflowers/admeter/pkg/types"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatisticType string

const (
	StatisticTypeDailyImpressions StatisticType = "daily_impressions"
	StatisticTypeDailyClicks      StatisticType = "daily_clicks"
	StatisticTypeDailyEngagement  StatisticType = "daily_engagement"
	StatisticTypeDailyConversions StatisticType = "daily_conversions"
	StatisticTypeDailyCtr         StatisticType = "daily_ctr"
	StatisticTypeDailySpend       StatisticType = "daily_spend"
	// StatisticTypeDailyUniqueReach counts distinct viewers per day. It reads
	// the dedup ledger, so it only covers the ledger retention window.
	StatisticTypeDailyUniqueReach StatisticType = "daily_unique_reach"
)

type AdStatisticFilterType string

const (
	AdStatisticFilterTypeAdID    AdStatisticFilterType = "ad_id"
	AdStatisticFilterTypeOwnerID AdStatisticFilterType = "owner_id"
	AdStatisticFilterTypeDay     AdStatisticFilterType = "day"
)

var filterTypes = []AdStatisticFilterType{
	AdStatisticFilterTypeAdID,
	AdStatisticFilterTypeOwnerID,
	AdStatisticFilterTypeDay,
}

type AdStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type AdStatisticRequest struct {
	Filters   []*types.CommonFilter  `json:"filters"`
	DataItems []*AdStatisticDataItem `json:"data_items"`
}

func (r *AdStatisticRequest) validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return fmt.Errorf("%w: data_items required", types.ErrInvalidQuery)
	}
	for _, di := range r.DataItems {
		if di == nil || di.ID == "" {
			return fmt.Errorf("%w: empty data item", types.ErrInvalidQuery)
		}
	}
	allowed := lo.Map(filterTypes, func(t AdStatisticFilterType, _ int) string { return string(t) })
	if err := types.ValidateFilters(r.Filters, allowed); err != nil {
		return err
	}
	return nil
}

// rollupFilters applies the request filters to ad_daily_rollup.
type rollupFilters struct{ filters []*types.CommonFilter }

func (w rollupFilters) Build(builder clause.Builder) {
	types.FiltersAnd(w.filters).Build(builder)
}

// ledgerFilters applies the request filters to the dedup ledger, which keys
// rows by target and day_key and has no owner column.
type ledgerFilters struct{ filters []*types.CommonFilter }

func (w ledgerFilters) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		switch AdStatisticFilterType(filter.Field) {
		case AdStatisticFilterTypeAdID:
			filter.WithField("target_id").Build(builder)
		case AdStatisticFilterTypeDay:
			filter.WithField("day_key").Build(builder)
		case AdStatisticFilterTypeOwnerID:
			builder.WriteString("target_id IN (SELECT id FROM ad WHERE ")
			filter.Build(builder)
			builder.WriteString(")")
		}
	}
}

type AdStatisticResponseDataItem struct {
	Date   string  `json:"date"`
	Label  string  `json:"label,omitempty"`
	Value  float64 `json:"value"`
	Value2 int64   `json:"value2,omitempty"`
	Value3 int64   `json:"value3,omitempty"`
}

type AdStatisticResponse struct {
	DataItems map[StatisticType][]AdStatisticResponseDataItem `json:"data_items"`
}

// Service is the analytics read side.
type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	cache *AnalyticsCache
}

func New(db *gorm.DB, log *zap.SugaredLogger, cache *AnalyticsCache) *Service {
	return &Service{db: db, log: log, cache: cache}
}

func (s *Service) dailySum(ctx context.Context, request *AdStatisticRequest, column string) ([]AdStatisticResponseDataItem, error) {
	var results []AdStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AdDailyRollup{}).TableName()).
		Select(fmt.Sprintf("day as date, sum(%s) as value", column)).
		Where(clause.Where{Exprs: []clause.Expression{rollupFilters{request.Filters}}}).
		Group("day").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getDailyCtr returns the ctr percentage with clicks in value2 and impressions in value3.
func (s *Service) getDailyCtr(ctx context.Context, request *AdStatisticRequest) ([]AdStatisticResponseDataItem, error) {
	var results []AdStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AdDailyRollup{}).TableName()).
		Select(`day as date,
  CASE WHEN sum(impressions) > 0 THEN sum(clicks) * 100.0 / sum(impressions) ELSE 0 END as value,
  sum(clicks) as value2,
  sum(impressions) as value3`).
		Where(clause.Where{Exprs: []clause.Expression{rollupFilters{request.Filters}}}).
		Group("day").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyUniqueReach(ctx context.Context, request *AdStatisticRequest) ([]AdStatisticResponseDataItem, error) {
	var results []AdStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.EventDedupEntry{}).TableName()).
		Select("day_key as date, count(DISTINCT fingerprint) as value").
		Where("event_type = ?", types.EventTypeImpression).
		Where(clause.Where{Exprs: []clause.Expression{ledgerFilters{request.Filters}}}).
		Group("day_key").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getAdStatistic(ctx context.Context, request *AdStatisticRequest, dataItem *AdStatisticDataItem) ([]AdStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyImpressions:
		return s.dailySum(ctx, request, "impressions")
	case StatisticTypeDailyClicks:
		return s.dailySum(ctx, request, "clicks")
	case StatisticTypeDailyEngagement:
		return s.dailySum(ctx, request, "engagement")
	case StatisticTypeDailyConversions:
		return s.dailySum(ctx, request, "conversions")
	case StatisticTypeDailySpend:
		return s.dailySum(ctx, request, "spend")
	case StatisticTypeDailyCtr:
		return s.getDailyCtr(ctx, request)
	case StatisticTypeDailyUniqueReach:
		return s.getDailyUniqueReach(ctx, request)
	default:
		return nil, fmt.Errorf("%w: invalid data item id %s", types.ErrInvalidQuery, dataItem.ID)
	}
}

// GetAdStatistic computes the requested data items concurrently.
func (s *Service) GetAdStatistic(ctx context.Context, request *AdStatisticRequest) (*AdStatisticResponse, error) {
	if err := request.validate(); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []AdStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *AdStatisticDataItem) {
			defer wg.Done()
			res, err := s.getAdStatistic(ctx, request, di)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", di.ID, err)
				return
			}
			resChan <- &lo.Entry[StatisticType, []AdStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}
	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	results := make(map[StatisticType][]AdStatisticResponseDataItem, len(request.DataItems))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &AdStatisticResponse{DataItems: results}, nil
}
