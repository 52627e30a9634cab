package testutils

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

var seq atomic.Int64

// CreateAdmin inserts the bootstrap account. Call it first so it gets id 1.
func CreateAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := CreateUser(t, db, models.RoleLearner, 0)
	if u.ID != 1 {
		t.Fatalf("admin fixture got id %d, want 1", u.ID)
	}
	return u
}

func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole, points int) *models.User {
	t.Helper()
	n := seq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "x",
		Role:     role,
		Points:   points,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateCourse inserts an active course. cost 0 makes it free.
func CreateCourse(t *testing.T, db *gorm.DB, ownerID uint, title string, cost int) *models.Course {
	t.Helper()
	c := &models.Course{
		Title:        title,
		CategoryID:   models.DefaultCategoryID,
		Level:        models.LevelBeginner,
		IsFree:       cost == 0,
		PointCost:    cost,
		PointsReward: models.DefaultPointsReward,
		Status:       models.CourseActive,
		UserID:       ownerID,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func CreateLessons(t *testing.T, db *gorm.DB, courseID uint, n int) []models.Lesson {
	t.Helper()
	lessons := make([]models.Lesson, n)
	for i := range lessons {
		lessons[i] = models.Lesson{CourseID: courseID, Title: fmt.Sprintf("Lesson %d", i+1), OrderIndex: i}
	}
	if n > 0 {
		if err := db.Create(&lessons).Error; err != nil {
			t.Fatalf("create lessons: %v", err)
		}
	}
	return lessons
}

func Enroll(t *testing.T, db *gorm.DB, userID, courseID uint, paid int) *models.Enrollment {
	t.Helper()
	e := &models.Enrollment{UserID: userID, CourseID: courseID, PointsPaid: paid}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	return e
}

// LedgerSum adds up every point transaction of the user.
func LedgerSum(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var sum int
	if err := db.Model(&models.PointTransaction{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error; err != nil {
		t.Fatalf("ledger sum: %v", err)
	}
	return sum
}

func Points(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var u models.User
	if err := db.Select("points").First(&u, userID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Points
}
