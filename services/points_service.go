package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

const (
	minPaidReward     = 100
	paidRewardPercent = 1.25
)

type EnrollResult struct {
	Message     string `json:"message"`
	PointsSpent int    `json:"pointsSpent"`
}

type CompleteResult struct {
	Message      string `json:"message"`
	PointsEarned int    `json:"pointsEarned"`
}

// EnrolledCourse is a course row joined with the caller's enrollment.
type EnrolledCourse struct {
	CourseDetail
	PointsPaid  int        `json:"points_paid"`
	Progress    int        `json:"progress"`
	QuizPassed  bool       `json:"quiz_passed"`
	QuizScore   *int       `json:"quiz_score"`
	CompletedAt *time.Time `json:"completed_at"`
	PurchasedAt time.Time  `json:"purchased_at"`
}

// PointsService owns every mutation of User.Points. Each balance change and
// its ledger row are written in one transaction.
type PointsService struct {
	db *gorm.DB

	// beforeDebit runs between the balance pre-check and the debit. Tests
	// use it to move the balance underneath an enrollment.
	beforeDebit func()
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{db: db}
}

func (s *PointsService) Balance(userID uint) (int, error) {
	var user models.User
	if err := s.db.Select("id", "points").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NewNotFound("User not found")
		}
		return 0, NewInternal(err)
	}
	return user.Points, nil
}

func (s *PointsService) History(userID uint) ([]models.PointTransaction, error) {
	txs := make([]models.PointTransaction, 0)
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&txs).Error; err != nil {
		return nil, NewInternal(err)
	}
	return txs, nil
}

func (s *PointsService) Enroll(userID, courseID uint) (*EnrollResult, error) {
	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Course not found")
		}
		return nil, NewInternal(err)
	}

	if _, err := findEnrollment(s.db, userID, courseID); err == nil {
		return nil, NewConflict("Already enrolled")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}

	cost := course.Cost()
	balance, err := s.Balance(userID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, NewInsufficientBalance(cost, balance)
	}
	if s.beforeDebit != nil {
		s.beforeDebit()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if cost > 0 {
			res := tx.Model(&models.User{}).
				Where("id = ? AND points >= ?", userID, cost).
				Update("points", gorm.Expr("points - ?", cost))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// balance moved between the read and the debit
				var current models.User
				if err := tx.Select("points").First(&current, userID).Error; err != nil {
					return err
				}
				return NewInsufficientBalance(cost, current.Points)
			}
			if err := recordTransaction(tx, userID, -cost, models.TxCoursePurchase, courseID,
				"Enrolled in: "+course.Title); err != nil {
				return err
			}
		}

		enrollment := models.Enrollment{UserID: userID, CourseID: courseID, PointsPaid: cost}
		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewConflict("Already enrolled")
			}
			return err
		}
		return tx.Model(&models.Course{}).Where("id = ?", courseID).
			UpdateColumn("total_students", gorm.Expr("total_students + ?", 1)).Error
	})
	if err != nil {
		return nil, wrapTx(err)
	}

	msg := "Enrolled successfully"
	if cost > 0 {
		msg = fmt.Sprintf("Enrolled for %d points", cost)
	}
	return &EnrollResult{Message: msg, PointsSpent: cost}, nil
}

// CompleteCourse grants the completion reward once per enrollment.
func (s *PointsService) CompleteCourse(userID, courseID uint) (*CompleteResult, error) {
	enrollment, err := findEnrollment(s.db, userID, courseID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewValidation("You are not enrolled in this course")
		}
		return nil, err
	}
	if enrollment.CompletedAt != nil {
		return nil, NewConflict("You have already claimed the reward for this course")
	}

	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Course not found")
		}
		return nil, NewInternal(err)
	}

	if err := s.checkCompletable(userID, courseID, enrollment); err != nil {
		return nil, err
	}

	reward := CompletionReward(&course, enrollment)
	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Enrollment{}).
			Where("id = ? AND completed_at IS NULL", enrollment.ID).
			Update("completed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewConflict("You have already claimed the reward for this course")
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", reward)).Error; err != nil {
			return err
		}
		return recordTransaction(tx, userID, reward, models.TxCourseComplete, courseID,
			"Completed: "+course.Title)
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return &CompleteResult{
		Message:      fmt.Sprintf("Congratulations! You earned %d points!", reward),
		PointsEarned: reward,
	}, nil
}

// checkCompletable: a course with a quiz needs it passed, otherwise every
// lesson needs a completed progress row.
func (s *PointsService) checkCompletable(userID, courseID uint, enrollment *models.Enrollment) error {
	var quizzes int64
	if err := s.db.Model(&models.Quiz{}).Where("course_id = ?", courseID).Count(&quizzes).Error; err != nil {
		return NewInternal(err)
	}
	if quizzes > 0 {
		if !enrollment.QuizPassed {
			return NewValidation("You must pass the quiz before claiming your reward")
		}
		return nil
	}

	total, completed, err := lessonCounts(s.db, userID, courseID)
	if err != nil {
		return NewInternal(err)
	}
	if total == 0 {
		return NewValidation("This course has no content to complete")
	}
	if remaining := total - completed; remaining > 0 {
		noun := "lesson"
		if remaining > 1 {
			noun = "lessons"
		}
		return NewValidation(fmt.Sprintf("Complete all lessons first. %d %s remaining.", remaining, noun))
	}
	return nil
}

// CompletionReward: free courses pay their configured reward (500 when
// unset), paid courses refund 125% of the price with a floor of 100.
func CompletionReward(course *models.Course, enrollment *models.Enrollment) int {
	if course.IsFree {
		if course.PointsReward > 0 {
			return course.PointsReward
		}
		return models.DefaultPointsReward
	}
	reward := int(math.Round(float64(enrollment.PointsPaid) * paidRewardPercent))
	if reward < minPaidReward {
		reward = minPaidReward
	}
	return reward
}

func (s *PointsService) MyEnrollments(userID uint) ([]EnrolledCourse, error) {
	rows := make([]EnrolledCourse, 0)
	err := courseDetailQuery(s.db).
		Select(courseDetailColumns+", purchases.points_paid, purchases.progress, purchases.quiz_passed, "+
			"purchases.quiz_score, purchases.completed_at, purchases.created_at AS purchased_at").
		Joins("JOIN purchases ON purchases.course_id = courses.id").
		Where("purchases.user_id = ?", userID).
		Order("purchases.created_at DESC, purchases.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, NewInternal(err)
	}
	return rows, nil
}

func (s *PointsService) MyEnrollmentIDs(userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	if err := s.db.Model(&models.Enrollment{}).Where("user_id = ?", userID).
		Order("course_id ASC").Pluck("course_id", &ids).Error; err != nil {
		return nil, NewInternal(err)
	}
	return ids, nil
}

func recordTransaction(tx *gorm.DB, userID uint, amount int, kind models.TransactionType, courseID uint, desc string) error {
	cid := courseID
	return tx.Create(&models.PointTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        kind,
		CourseID:    &cid,
		Description: desc,
	}).Error
}

func findEnrollment(db *gorm.DB, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("Not enrolled in this course")
		}
		return nil, NewInternal(err)
	}
	return &enrollment, nil
}

// lessonCounts returns the course's lesson count and how many of those the
// user has completed.
func lessonCounts(db *gorm.DB, userID, courseID uint) (total, completed int, err error) {
	var t, c int64
	if err = db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&t).Error; err != nil {
		return 0, 0, err
	}
	err = db.Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Where("lesson_id IN (?)", db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
		Count(&c).Error
	if err != nil {
		return 0, 0, err
	}
	return int(t), int(c), nil
}
