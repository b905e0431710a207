package models

import "time"

// Venue is a geofenced physical location players join.
type Venue struct {
	ID      string  `gorm:"primaryKey;type:varchar(64)"`
	Name    string  `gorm:"type:varchar(120);not null"`
	Address *string `gorm:"type:text"`

	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`
	// Radius is the geofence radius in meters.
	Radius float64 `gorm:"not null;default:100"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Venue) TableName() string {
	return "venues"
}
