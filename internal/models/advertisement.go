package models

import "time"

// Advertisement is an admin-managed creative bound to a page slot, optionally
// scoped to one venue. Impressions and clicks are lifetime counters; the
// windowed metrics come from ad_events.
type Advertisement struct {
	ID      string  `gorm:"primaryKey;type:varchar(64)"`
	Slot    string  `gorm:"type:varchar(32);not null;index"`
	VenueID *string `gorm:"type:varchar(64);index"`

	AdvertiserName string `gorm:"type:varchar(120);not null"`
	ImageURL       string `gorm:"type:text;not null"`
	ClickURL       string `gorm:"type:text;not null"`
	AltText        string `gorm:"type:text;not null"`
	Width          int    `gorm:"not null"`
	Height         int    `gorm:"not null"`

	Active    bool       `gorm:"not null;default:true;index"`
	StartDate time.Time  `gorm:"type:timestamptz;not null"`
	EndDate   *time.Time `gorm:"type:timestamptz"`

	Impressions int64 `gorm:"not null;default:0"`
	Clicks      int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Advertisement) TableName() string {
	return "advertisements"
}
