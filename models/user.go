package models

import (
	"time"
)

type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin" // full platform administration
	RoleTeacher    UserRole = "teacher"     // authors courses
	RoleLearner    UserRole = "learner"     // default for new accounts
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTeacher, RoleLearner:
		return true
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null" json:"username"`
	Email     string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	GoogleID  *string   `gorm:"size:64;index" json:"-"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'learner'" json:"role"`
	Points    int       `gorm:"not null;default:0;check:points >= 0" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
