package models

import (
	"time"
)

type Lesson struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_lesson_course_order" json:"course_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content"` // markdown
	VideoURL   *string   `gorm:"type:text" json:"video_url"`
	OrderIndex int       `gorm:"not null;uniqueIndex:idx_lesson_course_order" json:"order_index"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lesson) TableName() string { return "course_lessons" }

// LessonProgress is upserted per (user, lesson).
type LessonProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID    uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }
