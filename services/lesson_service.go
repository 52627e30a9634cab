package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

type LessonSummary struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

type LessonDetail struct {
	Lesson     models.Lesson  `json:"lesson"`
	PrevLesson *LessonSummary `json:"prevLesson"`
	NextLesson *LessonSummary `json:"nextLesson"`
}

type LessonInput struct {
	CourseID   uint    `json:"course_id"`
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	VideoURL   *string `json:"video_url"`
	OrderIndex *int    `json:"order_index"`
}

type LessonService struct {
	db    *gorm.DB
	roles *RoleResolver
}

func NewLessonService(db *gorm.DB, roles *RoleResolver) *LessonService {
	return &LessonService{db: db, roles: roles}
}

func (s *LessonService) ListByCourse(courseID uint) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0)
	if err := s.db.Where("course_id = ?", courseID).Order("order_index ASC").Find(&lessons).Error; err != nil {
		return nil, NewInternal(err)
	}
	return lessons, nil
}

func (s *LessonService) Get(lessonID uint) (*LessonDetail, error) {
	lesson, err := s.find(lessonID)
	if err != nil {
		return nil, err
	}

	var siblings []LessonSummary
	if err := s.db.Model(&models.Lesson{}).
		Select("id", "title", "order_index").
		Where("course_id = ?", lesson.CourseID).
		Order("order_index ASC").
		Scan(&siblings).Error; err != nil {
		return nil, NewInternal(err)
	}

	detail := &LessonDetail{Lesson: *lesson}
	for i := range siblings {
		if siblings[i].ID != lesson.ID {
			continue
		}
		if i > 0 {
			detail.PrevLesson = &siblings[i-1]
		}
		if i < len(siblings)-1 {
			detail.NextLesson = &siblings[i+1]
		}
		break
	}
	return detail, nil
}

// Create appends the lesson after the current last one.
func (s *LessonService) Create(requesterID uint, in LessonInput) (*models.Lesson, error) {
	if in.CourseID == 0 || in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, NewValidation("Course ID and title are required")
	}
	if err := s.authorize(requesterID, in.CourseID); err != nil {
		return nil, err
	}

	lesson := models.Lesson{CourseID: in.CourseID, Title: strings.TrimSpace(*in.Title)}
	if in.Content != nil {
		lesson.Content = *in.Content
	}
	lesson.VideoURL = normalizeVideoURL(in.VideoURL)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var last []models.Lesson
		if err := tx.Select("order_index").Where("course_id = ?", in.CourseID).
			Order("order_index DESC").Limit(1).Find(&last).Error; err != nil {
			return err
		}
		if len(last) > 0 {
			lesson.OrderIndex = last[0].OrderIndex + 1
		}
		return tx.Create(&lesson).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflict("Another lesson was added at the same time, please retry")
		}
		return nil, NewInternal(err)
	}
	return &lesson, nil
}

func (s *LessonService) Update(requesterID, lessonID uint, in LessonInput) (*models.Lesson, error) {
	lesson, err := s.find(lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(requesterID, lesson.CourseID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, NewValidation("Title cannot be empty")
		}
		lesson.Title = title
	}
	if in.Content != nil {
		lesson.Content = *in.Content
	}
	if in.VideoURL != nil {
		lesson.VideoURL = normalizeVideoURL(in.VideoURL)
	}
	if in.OrderIndex != nil {
		if *in.OrderIndex < 0 {
			return nil, NewValidation("Order index cannot be negative")
		}
		lesson.OrderIndex = *in.OrderIndex
	}

	if err := s.db.Save(lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflict("Another lesson already uses that position")
		}
		return nil, NewInternal(err)
	}
	return lesson, nil
}

func (s *LessonService) Delete(requesterID, lessonID uint) error {
	lesson, err := s.find(lessonID)
	if err != nil {
		return err
	}
	if err := s.authorize(requesterID, lesson.CourseID); err != nil {
		return err
	}
	return wrapTx(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lessonID).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Lesson{}, lessonID).Error; err != nil {
			return err
		}
		var learners []uint
		if err := tx.Model(&models.Enrollment{}).Where("course_id = ?", lesson.CourseID).
			Pluck("user_id", &learners).Error; err != nil {
			return err
		}
		for _, userID := range learners {
			if err := syncEnrollmentProgress(tx, userID, lesson.CourseID); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *LessonService) find(lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Lesson not found")
		}
		return nil, NewInternal(err)
	}
	return &lesson, nil
}

// authorize requires the course owner or a super admin. Anyone else gets
// the same NotFound as for a missing course.
func (s *LessonService) authorize(requesterID, courseID uint) error {
	var course models.Course
	if err := s.db.Select("id", "user_id").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("Course not found or unauthorized")
		}
		return NewInternal(err)
	}
	if course.UserID != requesterID && !s.roles.IsSuperAdmin(requesterID) {
		return NewNotFound("Course not found or unauthorized")
	}
	return nil
}

func normalizeVideoURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	url := strings.TrimSpace(*raw)
	if url == "" {
		return nil
	}
	return &url
}
