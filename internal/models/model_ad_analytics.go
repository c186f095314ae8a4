package models

import "time"

// AdAnalytics holds lifetime counters for one ad, derived only from admitted events.
type AdAnalytics struct {
	AdID        string `gorm:"column:ad_id;type:uuid;primary_key" json:"ad_id"`
	OwnerID     string `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`
	Impressions int64  `gorm:"column:impressions;not null;default:0" json:"impressions"`
	Clicks      int64  `gorm:"column:clicks;not null;default:0" json:"clicks"`
	// Ctr is clicks/impressions*100.
	Ctr         float64   `gorm:"column:ctr;not null;default:0" json:"ctr"`
	Engagement  int64     `gorm:"column:engagement;not null;default:0" json:"engagement"`
	Conversions int64     `gorm:"column:conversions;not null;default:0" json:"conversions"`
	Spend       float64   `gorm:"column:spend;not null;default:0" json:"spend"`
	LastUpdated time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (AdAnalytics) TableName() string {
	return "ad_analytics"
}

// AdEngagementCounter breaks lifetime engagement down by engagement type.
type AdEngagementCounter struct {
	AdID           string `gorm:"column:ad_id;type:uuid;primaryKey" json:"ad_id"`
	EngagementType string `gorm:"column:engagement_type;type:varchar(64);primaryKey" json:"engagement_type"`
	Count          int64  `gorm:"column:count;not null;default:0" json:"count"`
}

func (AdEngagementCounter) TableName() string {
	return "ad_engagement_counter"
}

// AdDailyRollup partitions the same counters by ad, owner and UTC day.
type AdDailyRollup struct {
	AdID        string    `gorm:"column:ad_id;type:uuid;primaryKey" json:"ad_id"`
	OwnerID     string    `gorm:"column:owner_id;type:varchar(64);primaryKey" json:"owner_id"`
	Day         string    `gorm:"column:day;type:varchar(10);primaryKey" json:"day"`
	Impressions int64     `gorm:"column:impressions;not null;default:0" json:"impressions"`
	Clicks      int64     `gorm:"column:clicks;not null;default:0" json:"clicks"`
	Engagement  int64     `gorm:"column:engagement;not null;default:0" json:"engagement"`
	Conversions int64     `gorm:"column:conversions;not null;default:0" json:"conversions"`
	Spend       float64   `gorm:"column:spend;not null;default:0" json:"spend"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AdDailyRollup) TableName() string {
	return "ad_daily_rollup"
}
