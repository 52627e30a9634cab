package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/testutils"
)

func TestCompletionReward(t *testing.T) {
	tests := []struct {
		name   string
		course models.Course
		paid   int
		want   int
	}{
		{"paid course below floor", models.Course{IsFree: false, PointCost: 60}, 60, 100},
		{"paid course refunds 125 percent", models.Course{IsFree: false, PointCost: 400}, 400, 500},
		{"paid rounding half away from zero", models.Course{IsFree: false, PointCost: 82}, 82, 103},
		{"free course default reward", models.Course{IsFree: true, PointsReward: 0}, 0, 500},
		{"free course configured reward", models.Course{IsFree: true, PointsReward: 250}, 0, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompletionReward(&tt.course, &models.Enrollment{PointsPaid: tt.paid})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnroll_InsufficientBalance(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	teacher := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 50)
	course := testutils.CreateCourse(t, db, teacher.ID, "Go Basics", 75)

	_, err := svc.Enroll(learner.ID, course.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInsufficientBalance))
	assert.Equal(t, "Not enough points. You need 75 points but have 50.", messageOf(err))

	assert.Equal(t, 50, testutils.Points(t, db, learner.ID))
	var enrollments int64
	db.Model(&models.Enrollment{}).Count(&enrollments)
	assert.Zero(t, enrollments)
}

func TestEnroll_ChargesAndRecordsLedger(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	teacher := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	free := testutils.CreateCourse(t, db, teacher.ID, "Intro", 0)
	testutils.CreateLessons(t, db, free.ID, 1)
	paid := testutils.CreateCourse(t, db, teacher.ID, "Advanced", 75)

	res, err := svc.Enroll(learner.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, "Enrolled successfully", res.Message)
	assert.Zero(t, res.PointsSpent)

	// earn 500 from the free course to afford the paid one
	progress := NewProgressService(db)
	lessons, err := NewLessonService(db, NewRoleResolver(db)).ListByCourse(free.ID)
	require.NoError(t, err)
	require.NoError(t, progress.MarkLessonComplete(learner.ID, lessons[0].ID))
	done, err := svc.CompleteCourse(learner.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, done.PointsEarned)

	res, err = svc.Enroll(learner.ID, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Enrolled for 75 points", res.Message)
	assert.Equal(t, 75, res.PointsSpent)

	balance, err := svc.Balance(learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 425, balance)
	assert.Equal(t, balance, testutils.LedgerSum(t, db, learner.ID))

	history, err := svc.History(learner.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var reloaded models.Course
	require.NoError(t, db.First(&reloaded, paid.ID).Error)
	assert.Equal(t, 1, reloaded.TotalStudents)
}

func TestEnroll_Twice(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 100)
	course := testutils.CreateCourse(t, db, 1, "Paid", 40)

	_, err := svc.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(learner.ID, course.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	assert.Equal(t, 60, testutils.Points(t, db, learner.ID))
	var count int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", learner.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnroll_BalanceDropsBeforeDebit(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 100)
	course := testutils.CreateCourse(t, db, 1, "Paid", 75)

	svc.beforeDebit = func() {
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", learner.ID).Update("points", 50).Error)
	}

	_, err := svc.Enroll(learner.ID, course.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInsufficientBalance))
	assert.Equal(t, "Not enough points. You need 75 points but have 50.", messageOf(err))

	assert.Equal(t, 50, testutils.Points(t, db, learner.ID))
	assert.Zero(t, testutils.LedgerSum(t, db, learner.ID))
	var count int64
	db.Model(&models.Enrollment{}).Count(&count)
	assert.Zero(t, count)
}

func TestEnroll_Concurrent(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 1000)
	course := testutils.CreateCourse(t, db, 1, "Paid", 40)

	const callers = 20
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Enroll(learner.ID, course.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsKind(err, KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", learner.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 960, testutils.Points(t, db, learner.ID))
	assert.Equal(t, -40, testutils.LedgerSum(t, db, learner.ID))

	var reloaded models.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, 1, reloaded.TotalStudents)
}

func TestCompleteCourse_Concurrent(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, 1, "Free", 0)
	lessons := testutils.CreateLessons(t, db, course.ID, 1)
	testutils.Enroll(t, db, learner.ID, course.ID, 0)
	require.NoError(t, NewProgressService(db).MarkLessonComplete(learner.ID, lessons[0].ID))

	const callers = 20
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CompleteCourse(learner.ID, course.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsKind(err, KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 500, testutils.Points(t, db, learner.ID))
	assert.Equal(t, testutils.Points(t, db, learner.ID), testutils.LedgerSum(t, db, learner.ID))
}

func TestEnroll_MissingCourse(t *testing.T) {
	db := testutils.SetupTestDB(t)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)

	_, err := NewPointsService(db).Enroll(learner.ID, 999)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCompleteCourse_Gating(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)
	progress := NewProgressService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, 1, "Three lessons", 0)
	lessons := testutils.CreateLessons(t, db, course.ID, 3)

	_, err := svc.CompleteCourse(learner.ID, course.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "You are not enrolled in this course", messageOf(err))

	testutils.Enroll(t, db, learner.ID, course.ID, 0)

	_, err = svc.CompleteCourse(learner.ID, course.ID)
	assert.Equal(t, "Complete all lessons first. 3 lessons remaining.", messageOf(err))

	require.NoError(t, progress.MarkLessonComplete(learner.ID, lessons[0].ID))
	require.NoError(t, progress.MarkLessonComplete(learner.ID, lessons[1].ID))
	_, err = svc.CompleteCourse(learner.ID, course.ID)
	assert.Equal(t, "Complete all lessons first. 1 lesson remaining.", messageOf(err))

	require.NoError(t, progress.MarkLessonComplete(learner.ID, lessons[2].ID))
	res, err := svc.CompleteCourse(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, res.PointsEarned)
	assert.Equal(t, "Congratulations! You earned 500 points!", res.Message)

	_, err = svc.CompleteCourse(learner.ID, course.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	assert.Equal(t, 500, testutils.Points(t, db, learner.ID))
	assert.Equal(t, 500, testutils.LedgerSum(t, db, learner.ID))
}

func TestCompleteCourse_NoContent(t *testing.T) {
	db := testutils.SetupTestDB(t)
	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, 1, "Empty", 0)
	testutils.Enroll(t, db, learner.ID, course.ID, 0)

	_, err := NewPointsService(db).CompleteCourse(learner.ID, course.ID)
	require.Error(t, err)
	assert.Equal(t, "This course has no content to complete", messageOf(err))
}

func TestCompleteCourse_QuizGate(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, 1, "Quizzed", 0)
	testutils.CreateLessons(t, db, course.ID, 2)
	enrollment := testutils.Enroll(t, db, learner.ID, course.ID, 0)
	require.NoError(t, db.Create(&models.Quiz{CourseID: course.ID, Title: "Final Quiz", PassingScore: 70}).Error)

	_, err := svc.CompleteCourse(learner.ID, course.ID)
	require.Error(t, err)
	assert.Equal(t, "You must pass the quiz before claiming your reward", messageOf(err))

	// a passed quiz replaces the lesson requirement
	require.NoError(t, db.Model(enrollment).Update("quiz_passed", true).Error)
	res, err := svc.CompleteCourse(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, res.PointsEarned)
}

func TestCompleteCourse_PaidReward(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 60)
	course := testutils.CreateCourse(t, db, 1, "Cheap", 60)
	lessons := testutils.CreateLessons(t, db, course.ID, 1)

	_, err := svc.Enroll(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, testutils.Points(t, db, learner.ID))

	require.NoError(t, NewProgressService(db).MarkLessonComplete(learner.ID, lessons[0].ID))
	res, err := svc.CompleteCourse(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, res.PointsEarned)
	assert.Equal(t, 100, testutils.Points(t, db, learner.ID))
}

func TestMyEnrollments(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewPointsService(db)

	admin := testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	a := testutils.CreateCourse(t, db, 1, "Alpha", 0)
	b := testutils.CreateCourse(t, db, 1, "Beta", 0)
	testutils.CreateCourse(t, db, 1, "Gamma", 0)
	testutils.Enroll(t, db, learner.ID, a.ID, 0)
	testutils.Enroll(t, db, learner.ID, b.ID, 0)

	ids, err := svc.MyEnrollmentIDs(learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, ids)

	rows, err := svc.MyEnrollments(learner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, admin.Username, r.Author)
		assert.Equal(t, "Development", r.CategoryName)
	}
}
