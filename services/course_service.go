package services

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

const (
	defaultCourseLimit = 6
	maxCourseLimit     = 50
)

// CourseDetail is a course joined with its author and category label.
type CourseDetail struct {
	models.Course
	Author       string `json:"author"`
	CategoryName string `json:"category_name"`
}

type CourseFilter struct {
	Category string
	Level    string
	Free     string // "true", "false" or empty
	Search   string
	Status   string
	Sort     string // newest, popular, title
	Page     int
	Limit    int
}

type CourseList struct {
	Courses    []CourseDetail `json:"courses"`
	Pagination Pagination     `json:"pagination"`
}

// CourseInput has pointer fields so updates only touch what was sent.
type CourseInput struct {
	Title            *string              `json:"title"`
	ShortDescription *string              `json:"short_description"`
	Description      *string              `json:"description"`
	WhatYouLearn     *string              `json:"what_you_learn"`
	Requirements     *string              `json:"requirements"`
	CategoryID       *uint                `json:"category_id"`
	Category         *string              `json:"category"` // code, accepted when category_id is absent
	Level            *models.CourseLevel  `json:"level"`
	Duration         *int                 `json:"duration"`
	IsFree           *bool                `json:"is_free"`
	PointCost        *int                 `json:"point_cost"`
	PointsReward     *int                 `json:"points_reward"`
	ImageURL         *string              `json:"image_url"`
	Status           *models.CourseStatus `json:"status"`
}

type CourseService struct {
	db    *gorm.DB
	roles *RoleResolver

	// beforeSave runs between loading and writing an edited course.
	beforeSave func()
}

func NewCourseService(db *gorm.DB, roles *RoleResolver) *CourseService {
	return &CourseService{db: db, roles: roles}
}

const courseDetailColumns = "courses.*, COALESCE(users.username, '') AS author, COALESCE(categories.name, '') AS category_name"

func courseDetailQuery(db *gorm.DB) *gorm.DB {
	return db.Table("courses").
		Joins("LEFT JOIN users ON users.id = courses.user_id").
		Joins("LEFT JOIN categories ON categories.id = courses.category_id")
}

func (s *CourseService) List(f CourseFilter) (*CourseList, error) {
	page := NewPage(f.Page, f.Limit, defaultCourseLimit, maxCourseLimit)

	filtered := func() *gorm.DB {
		q := courseDetailQuery(s.db)
		if f.Status != "" {
			q = q.Where("courses.status = ?", f.Status)
		}
		if f.Category != "" {
			if id, err := strconv.ParseUint(f.Category, 10, 64); err == nil {
				q = q.Where("courses.category_id = ?", id)
			} else {
				q = q.Where("categories.code = ?", f.Category)
			}
		}
		if f.Level != "" {
			q = q.Where("courses.level = ?", f.Level)
		}
		switch f.Free {
		case "true":
			q = q.Where("courses.is_free = ?", true)
		case "false":
			q = q.Where("courses.is_free = ?", false)
		}
		if search := strings.TrimSpace(f.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("(LOWER(courses.title) LIKE ? OR LOWER(users.username) LIKE ?)", like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, NewInternal(err)
	}

	order := "courses.created_at DESC, courses.id DESC"
	switch f.Sort {
	case "popular":
		order = "courses.total_students DESC, courses.id DESC"
	case "title":
		order = "courses.title ASC"
	}

	courses := make([]CourseDetail, 0)
	if err := filtered().Select(courseDetailColumns).Order(order).Limit(page.Limit).Offset(page.Offset()).Scan(&courses).Error; err != nil {
		return nil, NewInternal(err)
	}
	return &CourseList{Courses: courses, Pagination: page.Paginate(total)}, nil
}

func (s *CourseService) Get(id uint) (*CourseDetail, error) {
	var rows []CourseDetail
	if err := courseDetailQuery(s.db).Select(courseDetailColumns).Where("courses.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, NewInternal(err)
	}
	if len(rows) == 0 {
		return nil, NewNotFound("Course not found")
	}
	return &rows[0], nil
}

func (s *CourseService) Create(requesterID uint, in CourseInput) (*models.Course, error) {
	role := s.roles.Resolve(requesterID)
	if role != models.RoleTeacher && role != models.RoleSuperAdmin {
		return nil, NewForbidden("Only teachers and admins can create courses")
	}
	if in.Title == nil {
		return nil, NewValidation("Title is required")
	}

	course := models.Course{
		CategoryID:   models.DefaultCategoryID,
		Level:        models.LevelBeginner,
		IsFree:       true,
		PointsReward: models.DefaultPointsReward,
		Status:       models.CourseActive,
		UserID:       requesterID,
	}
	if err := s.apply(&course, in); err != nil {
		return nil, err
	}
	if err := s.db.Create(&course).Error; err != nil {
		return nil, NewInternal(err)
	}
	return &course, nil
}

func (s *CourseService) Update(requesterID, courseID uint, in CourseInput) (*models.Course, error) {
	course, err := s.owned(s.db, requesterID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(course, in); err != nil {
		return nil, err
	}
	if s.beforeSave != nil {
		s.beforeSave()
	}
	// total_students only moves through Enroll
	if err := s.db.Omit("total_students", "user_id", "created_at").Save(course).Error; err != nil {
		return nil, NewInternal(err)
	}
	return course, nil
}

// Delete removes the course and everything hanging off it. Point
// transactions stay; their course_id just dangles.
func (s *CourseService) Delete(requesterID, courseID uint) error {
	return wrapTx(s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.owned(tx, requesterID, courseID); err != nil {
			return err
		}
		quizIDs := tx.Model(&models.Quiz{}).Select("id").Where("course_id = ?", courseID)
		steps := []*gorm.DB{
			tx.Where("course_id = ?", courseID).Delete(&models.LessonProgress{}),
			tx.Where("course_id = ?", courseID).Delete(&models.Lesson{}),
			tx.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizQuestion{}),
			tx.Where("course_id = ?", courseID).Delete(&models.QuizAttempt{}),
			tx.Where("course_id = ?", courseID).Delete(&models.Quiz{}),
			tx.Where("course_id = ?", courseID).Delete(&models.Enrollment{}),
			tx.Where("course_id = ?", courseID).Delete(&models.Favorite{}),
			tx.Where("course_id = ?", courseID).Delete(&models.ChatMessage{}),
			tx.Delete(&models.Course{}, courseID),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		return nil
	}))
}

// owned hides courses the requester does not own behind NotFound.
func (s *CourseService) owned(db *gorm.DB, requesterID, courseID uint) (*models.Course, error) {
	var course models.Course
	err := db.Where("id = ? AND user_id = ?", courseID, requesterID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Course not found or unauthorized")
		}
		return nil, NewInternal(err)
	}
	return &course, nil
}

func (s *CourseService) apply(c *models.Course, in CourseInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if n := utf8.RuneCountInString(title); n < 3 || n > 200 {
			return NewValidation("Title must be 3-200 characters")
		}
		c.Title = title
	}
	if in.ShortDescription != nil {
		c.ShortDescription = *in.ShortDescription
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.WhatYouLearn != nil {
		c.WhatYouLearn = *in.WhatYouLearn
	}
	if in.Requirements != nil {
		c.Requirements = *in.Requirements
	}
	if in.CategoryID != nil || in.Category != nil {
		id, err := s.resolveCategory(in)
		if err != nil {
			return err
		}
		c.CategoryID = id
	}
	if in.Level != nil {
		switch *in.Level {
		case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
			c.Level = *in.Level
		default:
			return NewValidation("Level must be beginner, intermediate or advanced")
		}
	}
	if in.Duration != nil {
		if *in.Duration < 0 {
			return NewValidation("Duration cannot be negative")
		}
		c.Duration = *in.Duration
	}
	if in.IsFree != nil {
		c.IsFree = *in.IsFree
	}
	if in.PointCost != nil {
		if *in.PointCost < 0 {
			return NewValidation("Point cost cannot be negative")
		}
		c.PointCost = *in.PointCost
	}
	if in.PointsReward != nil {
		if *in.PointsReward < 0 {
			return NewValidation("Points reward cannot be negative")
		}
		c.PointsReward = *in.PointsReward
	}
	if in.ImageURL != nil {
		if url := strings.TrimSpace(*in.ImageURL); url != "" {
			c.ImageURL = &url
		} else {
			c.ImageURL = nil
		}
	}
	if in.Status != nil {
		switch *in.Status {
		case models.CourseActive, models.CourseDraft, models.CourseArchived:
			c.Status = *in.Status
		default:
			return NewValidation("Status must be active, draft or archived")
		}
	}
	return nil
}

func (s *CourseService) resolveCategory(in CourseInput) (uint, error) {
	var category models.Category
	q := s.db.Select("id")
	if in.CategoryID != nil {
		q = q.Where("id = ?", *in.CategoryID)
	} else {
		q = q.Where("code = ?", strings.TrimSpace(*in.Category))
	}
	if err := q.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NewValidation("Unknown category")
		}
		return 0, NewInternal(err)
	}
	return category.ID, nil
}

// wrapTx keeps AppErrors returned from inside a transaction and wraps the rest.
func wrapTx(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}
