package models

import "time"

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification is a per-user message, written by settlement as a best-effort
// side effect and read back by the notification bell.
type Notification struct {
	ID      string `gorm:"primaryKey;type:varchar(64)"`
	UserID  string `gorm:"type:varchar(64);not null;index"`
	Message string `gorm:"type:text;not null"`
	Type    string `gorm:"type:varchar(16);not null;default:'info'"`
	Read    bool   `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
