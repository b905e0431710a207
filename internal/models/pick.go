package models

import "time"

const (
	PickStatusPending  = "pending"
	PickStatusWon      = "won"
	PickStatusLost     = "lost"
	PickStatusPush     = "push"
	PickStatusCanceled = "canceled"
)

// Pick is a user's prediction on an external market outcome. The outcome title
// is snapshotted at pick time so history survives the market disappearing from
// the upstream feed. The partial unique index backs the at-most-one-pending
// rule against concurrent submissions.
type Pick struct {
	ID     string `gorm:"primaryKey;type:varchar(64)"`
	UserID string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_picks_pending,where:status = 'pending'"`

	PredictionID string `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_picks_pending,where:status = 'pending'"`
	OutcomeID    string `gorm:"type:varchar(120);not null"`
	OutcomeTitle string `gorm:"type:text;not null"`

	// Points awarded on win, computed at pick time from the outcome probability.
	Points int    `gorm:"not null"`
	Status string `gorm:"type:varchar(16);not null;index;default:'pending'"`

	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	ResolvedAt *time.Time `gorm:"type:timestamptz"`
}

func (Pick) TableName() string {
	return "user_predictions"
}
