package models

import (
	"time"

	"github.com/fatflowers/admeter/pkg/types"
)

// Subscription is an owner's advertising plan with its current usage window.
// PeriodStart, PeriodEnd and EndDate are epoch milliseconds.
type Subscription struct {
	ID        string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OwnerID   string          `gorm:"column:owner_id;type:varchar(64);not null;index:idx_subscription_owner" json:"owner_id"`
	OwnerType types.OwnerType `gorm:"column:owner_type;type:varchar(32);not null" json:"owner_type"`
	// ProviderSubscriptionID is the payment provider's id for a recurring plan.
	ProviderSubscriptionID *string                  `gorm:"column:provider_subscription_id;type:varchar(128);index:idx_subscription_provider_sub" json:"provider_subscription_id"`
	Provider               *types.PaymentProvider   `gorm:"column:provider;type:varchar(32)" json:"provider"`
	PackageID              string                   `gorm:"column:package_id;type:varchar(64);not null" json:"package_id"`
	AdLimit                int64                    `gorm:"column:ad_limit;not null" json:"ad_limit"`
	ImpressionLimit        int64                    `gorm:"column:impression_limit;not null" json:"impression_limit"`
	PeriodStart            int64                    `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd              int64                    `gorm:"column:period_end;not null" json:"period_end"`
	AdsUsed                int64                    `gorm:"column:ads_used;not null;default:0" json:"ads_used"`
	ImpressionsUsed        int64                    `gorm:"column:impressions_used;not null;default:0" json:"impressions_used"`
	Status                 types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// EndDate is set for fixed-term plans only.
	EndDate   *int64    `gorm:"column:end_date" json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// Ended reports whether a fixed-term plan is past its end date at nowMs.
func (s *Subscription) Ended(nowMs int64) bool {
	return s.EndDate != nil && *s.EndDate <= nowMs
}

// Usable reports whether the subscription may consume quota at nowMs.
func (s *Subscription) Usable(nowMs int64) bool {
	return s != nil && s.Status == types.SubscriptionStatusActive && !s.Ended(nowMs)
}
