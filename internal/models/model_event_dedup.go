package models

import "time"

// EventDedupEntry marks that a viewer already generated an event type for a
// target on a UTC day. Rows are write-once; the unique key is the admission mutex.
type EventDedupEntry struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TargetID    string    `gorm:"column:target_id;type:varchar(64);not null;uniqueIndex:ux_event_dedup_key,priority:1" json:"target_id"`
	EventType   string    `gorm:"column:event_type;type:varchar(96);not null;uniqueIndex:ux_event_dedup_key,priority:2" json:"event_type"`
	Fingerprint string    `gorm:"column:fingerprint;type:varchar(64);not null;uniqueIndex:ux_event_dedup_key,priority:3" json:"fingerprint"`
	DayKey      string    `gorm:"column:day_key;type:varchar(10);not null;uniqueIndex:ux_event_dedup_key,priority:4" json:"day_key"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index" json:"expires_at"`
}

func (EventDedupEntry) TableName() string {
	return "event_dedup_ledger"
}
