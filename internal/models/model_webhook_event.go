package models

import "time"

// WebhookEvent marks a provider event as processed. Never updated.
type WebhookEvent struct {
	ID              string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider        string    `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:ux_webhook_event_provider_event,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"column:provider_event_id;type:varchar(128);not null;uniqueIndex:ux_webhook_event_provider_event,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"column:event_type;type:varchar(128);not null" json:"event_type"`
	ReceivedAt      time.Time `gorm:"column:received_at;not null" json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_event"
}
