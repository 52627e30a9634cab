package models

import (
	"time"
)

type TransactionType string

const (
	TxCoursePurchase TransactionType = "course_purchase"
	TxCourseComplete TransactionType = "course_complete"
)

// PointTransaction is an append-only ledger row. The sum of Amount per user
// equals User.Points.
type PointTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      int             `gorm:"not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(30);not null" json:"type"`
	CourseID    *uint           `gorm:"index" json:"course_id"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}
