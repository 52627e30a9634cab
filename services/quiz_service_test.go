package services

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/testutils"
)

func intPtr(n int) *int { return &n }

func tenQuestions() []QuestionInput {
	qs := make([]QuestionInput, 10)
	for i := range qs {
		qs[i] = QuestionInput{
			Question:     "Question " + strconv.Itoa(i+1),
			Options:      []string{"right", "wrong", "also wrong"},
			CorrectIndex: intPtr(0),
		}
	}
	return qs
}

// answersFor picks the right option for the first n questions.
func answersFor(quiz *models.Quiz, n int) Answers {
	answers := Answers{}
	for i, q := range quiz.Questions {
		key := strconv.FormatUint(uint64(q.ID), 10)
		if i < n {
			answers[key] = intPtr(0)
		} else {
			answers[key] = intPtr(1)
		}
	}
	return answers
}

func TestSubmitQuiz_PassIsRetained(t *testing.T) {
	db := testutils.SetupTestDB(t)
	roles := NewRoleResolver(db)
	svc := NewQuizService(db, roles)

	testutils.CreateAdmin(t, db)
	teacher := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, teacher.ID, "Quizzed", 0)
	testutils.Enroll(t, db, learner.ID, course.ID, 0)

	quizID, err := svc.SaveQuiz(teacher.ID, course.ID, SaveQuizInput{PassingScore: intPtr(70), Questions: tenQuestions()})
	require.NoError(t, err)

	quiz, err := svc.GetQuiz(course.ID)
	require.NoError(t, err)
	require.NotNil(t, quiz)
	require.Len(t, quiz.Questions, 10)
	assert.Equal(t, quizID, quiz.ID)
	assert.Equal(t, models.DefaultQuizTitle, quiz.Title)

	result, err := svc.SubmitQuiz(quizID, learner.ID, answersFor(quiz, 8))
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 8, result.Correct)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, "Congratulations! You passed!", result.Message)

	result, err = svc.SubmitQuiz(quizID, learner.ID, answersFor(quiz, 4))
	require.NoError(t, err)
	assert.Equal(t, 40, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, "You need 70% to pass. Try again!", result.Message)

	var enrollment models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", learner.ID, course.ID).First(&enrollment).Error)
	assert.True(t, enrollment.QuizPassed)
	require.NotNil(t, enrollment.QuizScore)
	assert.Equal(t, 80, *enrollment.QuizScore)

	attempts, err := svc.Attempts(learner.ID, course.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestSubmitQuiz_SkippedAnswersCountAsWrong(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewQuizService(db, NewRoleResolver(db))

	admin := testutils.CreateAdmin(t, db)
	learner := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, admin.ID, "Quizzed", 0)
	testutils.Enroll(t, db, learner.ID, course.ID, 0)

	quizID, err := svc.SaveQuiz(admin.ID, course.ID, SaveQuizInput{Questions: tenQuestions()[:3]})
	require.NoError(t, err)
	quiz, err := svc.GetQuiz(course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPassingScore, quiz.PassingScore)

	answers := Answers{strconv.FormatUint(uint64(quiz.Questions[0].ID), 10): intPtr(0)}
	result, err := svc.SubmitQuiz(quizID, learner.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 33, result.Score)
	assert.False(t, result.Passed)
}

func TestSubmitQuiz_Errors(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewQuizService(db, NewRoleResolver(db))

	admin := testutils.CreateAdmin(t, db)
	outsider := testutils.CreateUser(t, db, models.RoleLearner, 0)
	course := testutils.CreateCourse(t, db, admin.ID, "Quizzed", 0)
	quizID, err := svc.SaveQuiz(admin.ID, course.ID, SaveQuizInput{})
	require.NoError(t, err)

	_, err = svc.SubmitQuiz(9999, outsider.ID, Answers{})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.SubmitQuiz(quizID, outsider.ID, Answers{})
	assert.True(t, IsKind(err, KindForbidden))

	testutils.Enroll(t, db, outsider.ID, course.ID, 0)
	_, err = svc.SubmitQuiz(quizID, outsider.ID, Answers{})
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "Quiz has no questions", messageOf(err))

	var attempts int64
	db.Model(&models.QuizAttempt{}).Count(&attempts)
	assert.Zero(t, attempts)
}

func TestSaveQuiz_Validation(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewQuizService(db, NewRoleResolver(db))

	testutils.CreateAdmin(t, db)
	teacher := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	other := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	course := testutils.CreateCourse(t, db, teacher.ID, "Mine", 0)

	tests := []struct {
		name      string
		requester uint
		courseID  uint
		input     SaveQuizInput
		kind      ErrorKind
	}{
		{"missing course", teacher.ID, 999, SaveQuizInput{}, KindNotFound},
		{"not the owner", other.ID, course.ID, SaveQuizInput{}, KindForbidden},
		{"passing score out of range", teacher.ID, course.ID, SaveQuizInput{PassingScore: intPtr(101)}, KindValidation},
		{"one option", teacher.ID, course.ID, SaveQuizInput{Questions: []QuestionInput{
			{Question: "Q", Options: []string{"only"}, CorrectIndex: intPtr(0)},
		}}, KindValidation},
		{"correct index out of range", teacher.ID, course.ID, SaveQuizInput{Questions: []QuestionInput{
			{Question: "Q", Options: []string{"a", "b"}, CorrectIndex: intPtr(2)},
		}}, KindValidation},
		{"missing correct index", teacher.ID, course.ID, SaveQuizInput{Questions: []QuestionInput{
			{Question: "Q", Options: []string{"a", "b"}},
		}}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveQuiz(tt.requester, tt.courseID, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestSaveQuiz_ReplacesQuestions(t *testing.T) {
	db := testutils.SetupTestDB(t)
	svc := NewQuizService(db, NewRoleResolver(db))

	admin := testutils.CreateAdmin(t, db)
	teacher := testutils.CreateUser(t, db, models.RoleTeacher, 0)
	course := testutils.CreateCourse(t, db, teacher.ID, "Mine", 0)

	first, err := svc.SaveQuiz(teacher.ID, course.ID, SaveQuizInput{Questions: tenQuestions()})
	require.NoError(t, err)

	// super admin may edit any course quiz
	second, err := svc.SaveQuiz(admin.ID, course.ID, SaveQuizInput{Title: "Exam", Questions: tenQuestions()[:2]})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	quiz, err := svc.GetQuiz(course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam", quiz.Title)
	assert.Len(t, quiz.Questions, 2)

	var questions int64
	db.Model(&models.QuizQuestion{}).Count(&questions)
	assert.Equal(t, int64(2), questions)
}

func TestGetQuiz_None(t *testing.T) {
	db := testutils.SetupTestDB(t)
	quiz, err := NewQuizService(db, NewRoleResolver(db)).GetQuiz(42)
	require.NoError(t, err)
	assert.Nil(t, quiz)
}
