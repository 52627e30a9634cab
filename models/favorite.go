package models

import (
	"time"
)

type Favorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CourseID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"course_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
