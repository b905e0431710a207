package models

import "time"

const (
	AdEventImpression = "impression"
	AdEventClick      = "click"
)

// AdEvent is one impression or click, kept for windowed reporting.
type AdEvent struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	AdID      string `gorm:"type:varchar(64);not null;index"`
	EventType string `gorm:"type:varchar(16);not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (AdEvent) TableName() string {
	return "ad_events"
}
