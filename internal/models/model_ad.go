package models

import (
	"time"

	"github.com/fatflowers/admeter/pkg/types"
)

// Ad is the advertisement entity. An active ad holds one unit of its owner's
// current-period ads_used quota; the link is procedural, not a foreign key.
type Ad struct {
	ID             string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OwnerID        string          `gorm:"column:owner_id;type:varchar(64);not null;index:idx_ad_owner_status,priority:1" json:"owner_id"`
	OwnerType      types.OwnerType `gorm:"column:owner_type;type:varchar(32);not null" json:"owner_type"`
	SubscriptionID string          `gorm:"column:subscription_id;type:uuid;not null" json:"subscription_id"`
	Title          string          `gorm:"column:title;type:varchar(255);not null" json:"title"`
	TargetURL      string          `gorm:"column:target_url;type:text" json:"target_url"`
	Status         types.AdStatus  `gorm:"column:status;type:varchar(32);not null;index:idx_ad_owner_status,priority:2" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Ad) TableName() string {
	return "ad"
}
