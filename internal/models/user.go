package models

import "time"

// User is a venue-scoped player profile. Points are mutated only additively,
// by trivia scoring and by settlement crediting.
type User struct {
	ID       string `gorm:"primaryKey;type:varchar(64)"`
	Username string `gorm:"type:varchar(40);not null;uniqueIndex"`
	VenueID  string `gorm:"type:varchar(64);not null;index"`

	Points  int  `gorm:"not null;default:0"`
	IsAdmin bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
