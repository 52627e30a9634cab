package services

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knowway/knowway-backend/models"
)

type CourseProgress struct {
	CompletedLessonIDs []uint `json:"completedLessonIds"`
	TotalLessons       int    `json:"totalLessons"`
	CompletedCount     int    `json:"completedCount"`
	PercentComplete    int    `json:"percentComplete"`
	CourseCompleted    bool   `json:"courseCompleted"`
}

type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

func (s *ProgressService) CourseProgress(userID, courseID uint) (*CourseProgress, error) {
	total, _, err := lessonCounts(s.db, userID, courseID)
	if err != nil {
		return nil, NewInternal(err)
	}

	ids := make([]uint, 0)
	if err := s.db.Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Where("lesson_id IN (?)", s.db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
		Order("lesson_id ASC").
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, NewInternal(err)
	}

	courseCompleted := false
	if enrollment, err := findEnrollment(s.db, userID, courseID); err == nil {
		courseCompleted = enrollment.CompletedAt != nil
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}

	return &CourseProgress{
		CompletedLessonIDs: ids,
		TotalLessons:       total,
		CompletedCount:     len(ids),
		PercentComplete:    percent(len(ids), total),
		CourseCompleted:    courseCompleted,
	}, nil
}

func (s *ProgressService) MarkLessonComplete(userID, lessonID uint) error {
	lesson, err := s.enrolledLesson(userID, lessonID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return wrapTx(s.db.Transaction(func(tx *gorm.DB) error {
		row := models.LessonProgress{
			UserID:      userID,
			LessonID:    lessonID,
			CourseID:    lesson.CourseID,
			Completed:   true,
			CompletedAt: &now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "course_id"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return syncEnrollmentProgress(tx, userID, lesson.CourseID)
	}))
}

func (s *ProgressService) MarkLessonIncomplete(userID, lessonID uint) error {
	lesson, err := s.enrolledLesson(userID, lessonID)
	if err != nil {
		return err
	}
	return wrapTx(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			Updates(map[string]interface{}{"completed": false, "completed_at": nil}).Error; err != nil {
			return err
		}
		return syncEnrollmentProgress(tx, userID, lesson.CourseID)
	}))
}

func (s *ProgressService) enrolledLesson(userID, lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.Select("id", "course_id").First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Lesson not found")
		}
		return nil, NewInternal(err)
	}
	if _, err := findEnrollment(s.db, userID, lesson.CourseID); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewForbidden("Must be enrolled")
		}
		return nil, err
	}
	return &lesson, nil
}

// syncEnrollmentProgress recomputes the stored percentage from progress rows.
func syncEnrollmentProgress(tx *gorm.DB, userID, courseID uint) error {
	total, completed, err := lessonCounts(tx, userID, courseID)
	if err != nil {
		return err
	}
	return tx.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		UpdateColumn("progress", percent(completed, total)).Error
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
