package models

import (
	"time"

	"gorm.io/datatypes"
)

// TriviaQuestion is an admin-managed multiple-choice question.
// CorrectAnswer is a zero-based index into Options.
type TriviaQuestion struct {
	ID       string                      `gorm:"primaryKey;type:varchar(64)"`
	Question string                      `gorm:"type:text;not null"`
	Options  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`

	CorrectAnswer int     `gorm:"not null"`
	Category      *string `gorm:"type:varchar(60)"`
	Difficulty    *string `gorm:"type:varchar(20)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TriviaQuestion) TableName() string {
	return "trivia_questions"
}
