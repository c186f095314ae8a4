package metering

import (
	"fmt"
	"time"

	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/tool"
	types "github.com/fatflowers/admeter/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// admittedEvent is one event that passed the ledger.
type admittedEvent struct {
	Ad             *models.Ad
	EventType      types.EventType
	EngagementType string
	Spend          float64
	At             time.Time
}

// aggregate applies an admitted event to the lifetime analytics record and
// the daily rollup. It must run inside tx.
func aggregate(tx *gorm.DB, ev *admittedEvent) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.AdAnalytics{AdID: ev.Ad.ID, OwnerID: ev.Ad.OwnerID, LastUpdated: ev.At}).Error; err != nil {
		return fmt.Errorf("failed to init analytics: %w", err)
	}

	// SET expressions read the pre-update row in both postgres and sqlite.
	updates := map[string]any{"last_updated": ev.At}
	switch ev.EventType {
	case types.EventTypeImpression:
		updates["impressions"] = gorm.Expr("impressions + 1")
		updates["spend"] = gorm.Expr("spend + ?", ev.Spend)
		updates["ctr"] = gorm.Expr("clicks * 100.0 / (impressions + 1)")
	case types.EventTypeClick:
		updates["clicks"] = gorm.Expr("clicks + 1")
		updates["ctr"] = gorm.Expr("CASE WHEN impressions > 0 THEN (clicks + 1) * 100.0 / impressions ELSE 0 END")
	case types.EventTypeEngagement:
		updates["engagement"] = gorm.Expr("engagement + 1")
	case types.EventTypeConversion:
		updates["conversions"] = gorm.Expr("conversions + 1")
	default:
		return fmt.Errorf("unsupported event type: %s", ev.EventType)
	}
	if err := tx.Model(&models.AdAnalytics{}).Where("ad_id = ?", ev.Ad.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update analytics: %w", err)
	}

	if ev.EventType == types.EventTypeEngagement {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ad_id"}, {Name: "engagement_type"}},
			DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("ad_engagement_counter.count + 1")}),
		}).Create(&models.AdEngagementCounter{AdID: ev.Ad.ID, EngagementType: ev.EngagementType, Count: 1}).Error
		if err != nil {
			return fmt.Errorf("failed to update engagement counter: %w", err)
		}
	}

	return upsertRollup(tx, ev)
}

func upsertRollup(tx *gorm.DB, ev *admittedEvent) error {
	row := &models.AdDailyRollup{
		AdID:      ev.Ad.ID,
		OwnerID:   ev.Ad.OwnerID,
		Day:       tool.DayKey(ev.At),
		UpdatedAt: ev.At,
	}
	var column string
	switch ev.EventType {
	case types.EventTypeImpression:
		row.Impressions, row.Spend, column = 1, ev.Spend, "impressions"
	case types.EventTypeClick:
		row.Clicks, column = 1, "clicks"
	case types.EventTypeEngagement:
		row.Engagement, column = 1, "engagement"
	case types.EventTypeConversion:
		row.Conversions, column = 1, "conversions"
	}

	assignments := map[string]any{
		column:       gorm.Expr(fmt.Sprintf("ad_daily_rollup.%s + 1", column)),
		"updated_at": ev.At,
	}
	if ev.EventType == types.EventTypeImpression {
		assignments["spend"] = gorm.Expr("ad_daily_rollup.spend + ?", ev.Spend)
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ad_id"}, {Name: "owner_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily rollup: %w", err)
	}
	return nil
}
