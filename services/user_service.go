package services

import (
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

type UserService struct {
	db    *gorm.DB
	roles *RoleResolver
}

func NewUserService(db *gorm.DB, roles *RoleResolver) *UserService {
	return &UserService{db: db, roles: roles}
}

func (s *UserService) ListUsers(requesterID uint) ([]UserView, error) {
	if !s.roles.IsSuperAdmin(requesterID) {
		return nil, NewForbidden("Access denied. Super admin only.")
	}
	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, NewInternal(err)
	}
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	return views, nil
}

func (s *UserService) UpdateUserRole(requesterID, targetID uint, role models.UserRole) error {
	if !s.roles.IsSuperAdmin(requesterID) {
		return NewForbidden("Access denied. Super admin only.")
	}
	if targetID == BootstrapAdminID {
		return NewValidation("Cannot change the main admin role")
	}
	if role != models.RoleTeacher && role != models.RoleLearner {
		return NewValidation("Invalid role. Must be teacher or learner")
	}
	res := s.db.Model(&models.User{}).Where("id = ?", targetID).Update("role", role)
	if res.Error != nil {
		return NewInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFound("User not found")
	}
	return nil
}

func (s *UserService) MyRole(userID uint) models.UserRole {
	return s.roles.Resolve(userID)
}
