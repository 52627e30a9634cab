package models

import (
	"time"
)

const MaxChatMessageLength = 1000

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index:idx_message_course_created" json:"course_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_message_course_created" json:"created_at"`
}

func (ChatMessage) TableName() string { return "course_messages" }
