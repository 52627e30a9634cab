package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultQuizTitle    = "Final Quiz"
	DefaultPassingScore = 85
)

type Quiz struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CourseID     uint           `gorm:"not null;uniqueIndex" json:"course_id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	PassingScore int            `gorm:"not null;default:85" json:"passing_score"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	Questions    []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
}

func (Quiz) TableName() string { return "course_quizzes" }

// QuizQuestion.CorrectIndex is zero-based and never serialized.
type QuizQuestion struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	QuizID       uint                        `gorm:"not null;index" json:"quiz_id"`
	Question     string                      `gorm:"type:text;not null" json:"question"`
	Options      datatypes.JSONSlice[string] `json:"options"`
	CorrectIndex int                         `gorm:"not null" json:"-"`
	OrderIndex   int                         `gorm:"not null;default:0" json:"order_index"`
}

type QuizAttempt struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index:idx_attempt_user_course" json:"user_id"`
	QuizID      uint           `gorm:"not null;index" json:"quiz_id"`
	CourseID    uint           `gorm:"not null;index:idx_attempt_user_course" json:"course_id"`
	Score       int            `gorm:"not null" json:"score"`
	Passed      bool           `gorm:"not null" json:"passed"`
	Answers     datatypes.JSON `json:"answers"`
	CompletedAt time.Time      `gorm:"autoCreateTime" json:"completed_at"`
}
