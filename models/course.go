package models

import (
	"time"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type CourseStatus string

const (
	CourseActive   CourseStatus = "active"
	CourseDraft    CourseStatus = "draft"
	CourseArchived CourseStatus = "archived"
)

// Defaults applied when a course is created without the field.
const (
	DefaultCategoryID   uint = 1
	DefaultPointsReward      = 500
)

type Course struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Title            string       `gorm:"size:200;not null" json:"title"`
	ShortDescription string       `gorm:"size:500" json:"short_description"`
	Description      string       `gorm:"type:text" json:"description"`
	WhatYouLearn     string       `gorm:"type:text" json:"what_you_learn"`
	Requirements     string       `gorm:"type:text" json:"requirements"`
	CategoryID       uint         `gorm:"not null;default:1;index" json:"category_id"`
	Level            CourseLevel  `gorm:"type:varchar(20);not null;default:'beginner'" json:"level"`
	Duration         int          `gorm:"not null;default:0" json:"duration"` // hours
	IsFree           bool         `gorm:"not null" json:"is_free"`
	PointCost        int          `gorm:"not null;default:0" json:"point_cost"`
	PointsReward     int          `gorm:"not null;default:500" json:"points_reward"`
	ImageURL         *string      `gorm:"type:text" json:"image_url"`
	UserID           uint         `gorm:"not null;index" json:"user_id"` // owner
	Status           CourseStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	TotalStudents    int          `gorm:"not null;default:0" json:"total_students"`
	CreatedAt        time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// Cost is what enrolling charges right now.
func (c *Course) Cost() int {
	if c.IsFree {
		return 0
	}
	return c.PointCost
}
