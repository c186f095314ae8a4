package models

import (
	"time"

	"gorm.io/datatypes"
)

type CompensationOperation string

const (
	CompensationOperationReleaseAdSlot     CompensationOperation = "release_ad_slot"
	CompensationOperationReleaseImpression CompensationOperation = "release_impression"
)

// CompensationDeadLetter records a compensating write that could not be applied.
// Quota stays overcounted until the next period rollover.
type CompensationDeadLetter struct {
	ID             string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Operation      CompensationOperation `gorm:"column:operation;type:varchar(64);not null;index" json:"operation"`
	SubscriptionID string                `gorm:"column:subscription_id;type:varchar(64);not null;index" json:"subscription_id"`
	Error          string                `gorm:"column:error;type:text;not null" json:"error"`
	Payload        datatypes.JSONMap     `gorm:"column:payload;type:jsonb;default:'{}'" json:"payload"`
	TraceID        string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	CreatedAt      time.Time             `json:"created_at"`
}

func (CompensationDeadLetter) TableName() string {
	return "compensation_dead_letter"
}
