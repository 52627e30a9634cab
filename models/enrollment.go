package models

import (
	"time"
)

// Enrollment links a user to a course. CompletedAt doubles as the
// "reward already claimed" marker and is written exactly once.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_purchase_user_course" json:"user_id"`
	CourseID    uint       `gorm:"not null;uniqueIndex:idx_purchase_user_course;index" json:"course_id"`
	PointsPaid  int        `gorm:"not null;default:0" json:"points_paid"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	QuizPassed  bool       `gorm:"not null;default:false" json:"quiz_passed"`
	QuizScore   *int       `json:"quiz_score"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Enrollment) TableName() string { return "purchases" }
