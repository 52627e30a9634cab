package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knowway/knowway-backend/models"
)

type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// Add is idempotent: favoriting twice leaves one row.
func (s *FavoriteService) Add(userID, courseID uint) error {
	var count int64
	if err := s.db.Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return NewInternal(err)
	}
	if count == 0 {
		return NewNotFound("Course not found")
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, CourseID: courseID}).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewInternal(err)
	}
	return nil
}

func (s *FavoriteService) Remove(userID, courseID uint) error {
	if err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.Favorite{}).Error; err != nil {
		return NewInternal(err)
	}
	return nil
}

func (s *FavoriteService) List(userID uint) ([]CourseDetail, error) {
	courses := make([]CourseDetail, 0)
	err := courseDetailQuery(s.db).
		Select(courseDetailColumns).
		Joins("JOIN favorites ON favorites.course_id = courses.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Scan(&courses).Error
	if err != nil {
		return nil, NewInternal(err)
	}
	return courses, nil
}

func (s *FavoriteService) IDs(userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	if err := s.db.Model(&models.Favorite{}).Where("user_id = ?", userID).
		Order("created_at DESC").Pluck("course_id", &ids).Error; err != nil {
		return nil, NewInternal(err)
	}
	return ids, nil
}
