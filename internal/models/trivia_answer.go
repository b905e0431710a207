package models

import "time"

// TriviaAnswer is the append-only log of answered questions. The trivia quota
// window is derived from this log, never from a stored counter.
type TriviaAnswer struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"type:varchar(64);not null;index:idx_trivia_answers_user_time"`
	QuestionID string `gorm:"type:varchar(64);not null;index"`

	Answer      int  `gorm:"not null"`
	IsCorrect   bool `gorm:"not null"`
	TimeElapsed int  `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index:idx_trivia_answers_user_time"`
}

func (TriviaAnswer) TableName() string {
	return "trivia_answers"
}
