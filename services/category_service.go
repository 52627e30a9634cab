package services

import (
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

type CategoryService struct {
	db    *gorm.DB
	roles *RoleResolver
}

func NewCategoryService(db *gorm.DB, roles *RoleResolver) *CategoryService {
	return &CategoryService{db: db, roles: roles}
}

func (s *CategoryService) List() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, NewInternal(err)
	}
	return categories, nil
}

// Create derives the code from the name when none is given.
func (s *CategoryService) Create(requesterID uint, name, code string) (*models.Category, error) {
	if !s.roles.IsSuperAdmin(requesterID) {
		return nil, NewForbidden("Access denied. Super admin only.")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, NewValidation("Category name must be 1-100 characters")
	}
	if strings.TrimSpace(code) == "" {
		code = name
	}
	code = slug.Make(code)
	if code == "" {
		return nil, NewValidation("Category code is invalid")
	}

	category := models.Category{Code: code, Name: name}
	if err := s.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflict("Category already exists")
		}
		return nil, NewInternal(err)
	}
	return &category, nil
}
